package leaderboardservice

import (
	"context"
	"slices"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	leaderboardcache "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/cache"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/uptrace/bun"
)

// FakeCache records calls; unset functions behave like an empty cache.
type FakeCache struct {
	GetFn        func(ctx context.Context, mode leaderboarddomain.Mode, threshold int, view leaderboarddomain.View) (*leaderboarddomain.Leaderboard, error)
	GenerationFn func(ctx context.Context) (int64, error)
	SetFn        func(ctx context.Context, board *leaderboarddomain.Leaderboard, generation int64) error
	InvalidateFn func(ctx context.Context) error

	trace []string
}

func (f *FakeCache) Trace() []string { return slices.Clone(f.trace) }

func (f *FakeCache) Get(ctx context.Context, mode leaderboarddomain.Mode, threshold int, view leaderboarddomain.View) (*leaderboarddomain.Leaderboard, error) {
	f.trace = append(f.trace, "Get")
	if f.GetFn != nil {
		return f.GetFn(ctx, mode, threshold, view)
	}
	return nil, leaderboardcache.ErrMiss
}

func (f *FakeCache) Generation(ctx context.Context) (int64, error) {
	f.trace = append(f.trace, "Generation")
	if f.GenerationFn != nil {
		return f.GenerationFn(ctx)
	}
	return 0, nil
}

func (f *FakeCache) Set(ctx context.Context, board *leaderboarddomain.Leaderboard, generation int64) error {
	f.trace = append(f.trace, "Set")
	if f.SetFn != nil {
		return f.SetFn(ctx, board, generation)
	}
	return nil
}

func (f *FakeCache) Invalidate(ctx context.Context) error {
	f.trace = append(f.trace, "Invalidate")
	if f.InvalidateFn != nil {
		return f.InvalidateFn(ctx)
	}
	return nil
}

// FakeOverwriter captures the history a rebuild wrote.
type FakeOverwriter struct {
	OverwriteFn func(ctx context.Context, db bun.IDB, history *sessiondomain.Tally) error
	Written     *sessiondomain.Tally
}

func (f *FakeOverwriter) Overwrite(ctx context.Context, db bun.IDB, history *sessiondomain.Tally) error {
	f.Written = history
	if f.OverwriteFn != nil {
		return f.OverwriteFn(ctx, db, history)
	}
	return nil
}

var (
	_ leaderboardcache.Cache = (*FakeCache)(nil)
	_ Overwriter             = (*FakeOverwriter)(nil)
)
