// Package leaderboardcache keeps rendered leaderboards in Redis. Entries are
// derived data: a miss or a Redis failure always falls back to the ledger.
package leaderboardcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "leaderboard:v1:"
	// generationKey lives outside keyPrefix so Invalidate never deletes it.
	generationKey = "leaderboard:generation"
)

var (
	// ErrMiss is returned by Get when nothing is cached for the key.
	ErrMiss = errors.New("leaderboard cache miss")
	// ErrStale is returned by Set when an invalidation happened after the
	// caller read the generation. The board was not stored.
	ErrStale = errors.New("leaderboard cache generation changed")
)

// Cache stores leaderboards per (mode, threshold, view).
//
// Writers read Generation before loading the ledger and pass it to Set. An
// Invalidate in between bumps the generation, so a board built from a
// snapshot older than the invalidation is never stored.
type Cache interface {
	Get(ctx context.Context, mode leaderboarddomain.Mode, threshold int, view leaderboarddomain.View) (*leaderboarddomain.Leaderboard, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, board *leaderboarddomain.Leaderboard, generation int64) error
	// Invalidate drops every cached leaderboard.
	Invalidate(ctx context.Context) error
}

// RedisCache is the go-redis implementation of Cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to url and verifies the connection.
func New(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, mode leaderboarddomain.Mode, threshold int, view leaderboarddomain.View) (*leaderboarddomain.Leaderboard, error) {
	data, err := c.client.Get(ctx, Key(mode, threshold, view)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var board leaderboarddomain.Leaderboard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return &board, nil
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores board only while the generation still equals generation. The
// check and the write run in one WATCH/MULTI transaction.
func (c *RedisCache) Set(ctx context.Context, board *leaderboarddomain.Leaderboard, generation int64) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	key := Key(board.Mode, board.Threshold, board.View)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate bumps the generation first, then drops the cached boards. It
// scans the key prefix rather than using KEYS so a large keyspace does not
// block the server.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return err
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key is the Redis key for one leaderboard variant.
func Key(mode leaderboarddomain.Mode, threshold int, view leaderboarddomain.View) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, mode, threshold, view)
}

// Noop never caches. It is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, leaderboarddomain.Mode, int, leaderboarddomain.View) (*leaderboarddomain.Leaderboard, error) {
	return nil, ErrMiss
}

func (Noop) Generation(context.Context) (int64, error) { return 0, nil }

func (Noop) Set(context.Context, *leaderboarddomain.Leaderboard, int64) error { return nil }

func (Noop) Invalidate(context.Context) error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = Noop{}
)
