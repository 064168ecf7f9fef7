package sessionmigrations

import (
	"context"
	"fmt"

	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating sessions and session_votes tables...")

		if _, err := db.NewCreateTable().Model((*sessiondb.Session)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*sessiondb.Vote)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		_, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_sessions_status_date ON sessions (status, session_date DESC)").Exec(ctx)
		if err != nil {
			return fmt.Errorf("create idx_sessions_status_date: %w", err)
		}

		fmt.Println("Session tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping session tables...")

		if _, err := db.NewDropTable().Model((*sessiondb.Vote)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*sessiondb.Session)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Session tables dropped successfully!")
		return nil
	})
}
