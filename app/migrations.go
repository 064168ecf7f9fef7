package app

import (
	"context"
	"fmt"
	"log/slog"

	ledgermigrations "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories/migrations"
	sessionmigrations "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// ModuleMigrator pairs a module name with its bun migrator.
type ModuleMigrator struct {
	Module   string
	Migrator *migrate.Migrator
}

// Migrators returns one migrator per module. Each module keeps its own
// bookkeeping tables so groups never interleave on rollback.
func Migrators(db *bun.DB) []ModuleMigrator {
	return []ModuleMigrator{
		newModuleMigrator(db, "ledger", ledgermigrations.Migrations),
		newModuleMigrator(db, "session", sessionmigrations.Migrations),
	}
}

func newModuleMigrator(db *bun.DB, module string, set *migrate.Migrations) ModuleMigrator {
	return ModuleMigrator{
		Module: module,
		Migrator: migrate.NewMigrator(db, set,
			migrate.WithTableName("bun_migrations_"+module),
			migrate.WithLocksTableName("bun_migration_locks_"+module),
		),
	}
}

// Migrate brings every module schema up to date.
func Migrate(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", m.Module, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", m.Module, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", slog.String("module", m.Module))
			continue
		}
		logger.InfoContext(ctx, "Migrated module",
			slog.String("module", m.Module),
			slog.String("group", group.String()),
		)
	}
	return nil
}
