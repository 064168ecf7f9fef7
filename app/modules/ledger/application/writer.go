package ledgerservice

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/uptrace/bun"
)

// ledgerLockKey identifies the ledger in pg_advisory_xact_lock. Every replica
// sharing the database takes the same key.
const ledgerLockKey int64 = 0x646f75626c6573 // "doubles"

// Writer is the single choke point for ledger mutations. Every change to
// sessions, players, teams, game records or check-ins runs inside Do, which
// serializes callers in-process and wraps the work in one transaction so a
// finalize either lands completely or not at all. On Postgres the transaction
// also takes a transaction-scoped advisory lock, so replicas sharing the
// database serialize too.
type Writer struct {
	mu sync.Mutex
	db *bun.DB
}

// NewWriter returns a Writer over db. A nil db runs callbacks without a
// transaction, which service tests rely on.
func NewWriter(db *bun.DB) *Writer {
	return &Writer{db: db}
}

// Do runs fn while holding the ledger lock. fn receives the transaction
// handle and must use it for every read and write it makes.
func (w *Writer) Do(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return fn(ctx, nil)
	}
	return w.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := lockLedger(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

// DB exposes the underlying handle for read paths that do not need the lock.
func (w *Writer) DB() *bun.DB {
	return w.db
}

// lockLedger blocks until no other transaction holds the ledger lock. The
// lock is released on commit or rollback. SQLite runs a single writer
// connection, so only Postgres needs it.
func lockLedger(ctx context.Context, tx bun.Tx) error {
	if !database.IsPostgres(tx) {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", ledgerLockKey); err != nil {
		return fmt.Errorf("failed to acquire ledger lock: %w", err)
	}
	return nil
}
