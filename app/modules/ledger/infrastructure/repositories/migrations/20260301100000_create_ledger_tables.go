package ledgermigrations

import (
	"context"
	"fmt"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating players, teams, game_records and check_ins tables...")

		models := []any{
			(*ledgerdb.Player)(nil),
			(*ledgerdb.Team)(nil),
			(*ledgerdb.GameRecord)(nil),
			(*ledgerdb.CheckIn)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_game_records_session_date ON game_records (session_date, created_at)",
			"CREATE INDEX IF NOT EXISTS idx_game_records_session_id ON game_records (session_id)",
			"CREATE INDEX IF NOT EXISTS idx_teams_players ON teams (player_a, player_b)",
		}
		for _, stmt := range indexes {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}

		fmt.Println("Ledger tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ledger tables...")

		models := []any{
			(*ledgerdb.CheckIn)(nil),
			(*ledgerdb.GameRecord)(nil),
			(*ledgerdb.Team)(nil),
			(*ledgerdb.Player)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Ledger tables dropped successfully!")
		return nil
	})
}
