// Package dbtest provides migrated in-memory databases for repository tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// NewSQLite opens a private in-memory SQLite database and applies every
// given migration set in order. The database is closed when the test ends.
func NewSQLite(t *testing.T, sets ...*migrate.Migrations) *bun.DB {
	t.Helper()

	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, set := range sets {
		migrator := migrate.NewMigrator(db, set)
		require.NoError(t, migrator.Init(ctx))
		_, err := migrator.Migrate(ctx)
		require.NoError(t, err)
	}
	return db
}
