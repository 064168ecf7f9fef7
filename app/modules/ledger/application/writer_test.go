package ledgerservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Black-And-White-Club/doubles-bot/app/database/dbtest"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	ledgermigrations "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestWriter_SerializesCallers(t *testing.T) {
	w := NewWriter(nil)

	var inFlight, maxSeen atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Do(context.Background(), func(ctx context.Context, db bun.IDB) error {
				n := inFlight.Add(1)
				for {
					old := maxSeen.Load()
					if n <= old || maxSeen.CompareAndSwap(old, n) {
						break
					}
				}
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestWriter_CanceledContext(t *testing.T) {
	w := NewWriter(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := w.Do(ctx, func(ctx context.Context, db bun.IDB) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWriter_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewSQLite(t, ledgermigrations.Migrations)
	repo := ledgerdb.NewRepository(db)
	w := NewWriter(db)

	boom := errors.New("boom")
	err := w.Do(ctx, func(ctx context.Context, tx bun.IDB) error {
		require.NoError(t, repo.RegisterPlayer(ctx, tx, &ledgerdb.Player{ID: "a", DisplayName: "A"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetPlayer(ctx, nil, "a")
	assert.ErrorIs(t, err, ledgerdb.ErrNotFound)

	require.NoError(t, w.Do(ctx, func(ctx context.Context, tx bun.IDB) error {
		return repo.RegisterPlayer(ctx, tx, &ledgerdb.Player{ID: "a", DisplayName: "A"})
	}))
	_, err = repo.GetPlayer(ctx, nil, "a")
	assert.NoError(t, err)
}
