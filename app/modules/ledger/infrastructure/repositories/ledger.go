package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new ledger repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) RegisterPlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	player.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(player).
		On("CONFLICT (id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.RegisterPlayer: %w", err)
	}
	return nil
}

func (r *Impl) GetPlayer(ctx context.Context, db bun.IDB, id string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().Model(player).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ledgerdb.GetPlayer: %w", err)
	}
	return player, nil
}

func (r *Impl) GetPlayers(ctx context.Context, db bun.IDB, ids []string) ([]Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.GetPlayers: %w", err)
	}
	return players, nil
}

func (r *Impl) ListPlayers(ctx context.Context, db bun.IDB) ([]Player, error) {
	db = r.resolveDB(db)
	var players []Player
	if err := db.NewSelect().Model(&players).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledgerdb.ListPlayers: %w", err)
	}
	return players, nil
}

func (r *Impl) UpdatePlayerTotals(ctx context.Context, db bun.IDB, players []Player) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for i := range players {
		p := &players[i]
		p.UpdatedAt = now
		res, err := db.NewUpdate().
			Model(p).
			Column("total_points", "games_played", "wins", "losses", "point_diff", "rating", "rated_sessions", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("ledgerdb.UpdatePlayerTotals: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("ledgerdb.UpdatePlayerTotals: player %s: %w", p.ID, ErrNotFound)
		}
	}
	return nil
}

func (r *Impl) GetTeams(ctx context.Context, db bun.IDB, keys []string) ([]Team, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var teams []Team
	err := db.NewSelect().
		Model(&teams).
		Where("team_key IN (?)", bun.In(keys)).
		Order("team_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.GetTeams: %w", err)
	}
	return teams, nil
}

func (r *Impl) ListTeams(ctx context.Context, db bun.IDB) ([]Team, error) {
	db = r.resolveDB(db)
	var teams []Team
	if err := db.NewSelect().Model(&teams).Order("team_key ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledgerdb.ListTeams: %w", err)
	}
	return teams, nil
}

func (r *Impl) UpsertTeams(ctx context.Context, db bun.IDB, teams []Team) error {
	if len(teams) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for i := range teams {
		teams[i].UpdatedAt = now
	}
	_, err := db.NewInsert().
		Model(&teams).
		On("CONFLICT (team_key) DO UPDATE").
		Set("total_points = EXCLUDED.total_points").
		Set("games_played = EXCLUDED.games_played").
		Set("wins = EXCLUDED.wins").
		Set("losses = EXCLUDED.losses").
		Set("point_diff = EXCLUDED.point_diff").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.UpsertTeams: %w", err)
	}
	return nil
}

func (r *Impl) DeleteAllTeams(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Team)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("ledgerdb.DeleteAllTeams: %w", err)
	}
	return nil
}

func (r *Impl) InsertGameRecords(ctx context.Context, db bun.IDB, records []GameRecord) error {
	if len(records) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(&records).Exec(ctx); err != nil {
		return fmt.Errorf("ledgerdb.InsertGameRecords: %w", err)
	}
	return nil
}

func (r *Impl) ListGameRecords(ctx context.Context, db bun.IDB) ([]GameRecord, error) {
	db = r.resolveDB(db)
	var records []GameRecord
	err := db.NewSelect().
		Model(&records).
		Order("session_date ASC", "created_at ASC", "slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.ListGameRecords: %w", err)
	}
	return records, nil
}

func (r *Impl) ListGameRecordsForPlayer(ctx context.Context, db bun.IDB, playerID string) ([]GameRecord, error) {
	db = r.resolveDB(db)
	var records []GameRecord
	err := db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("team_a1 = ?", playerID).
				WhereOr("team_a2 = ?", playerID).
				WhereOr("team_b1 = ?", playerID).
				WhereOr("team_b2 = ?", playerID)
		}).
		Order("session_date ASC", "created_at ASC", "slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.ListGameRecordsForPlayer: %w", err)
	}
	return records, nil
}

func (r *Impl) AddCheckIn(ctx context.Context, db bun.IDB, checkIn *CheckIn) error {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(checkIn).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.AddCheckIn: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}

func (r *Impl) RemoveCheckIn(ctx context.Context, db bun.IDB, date, playerID string) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*CheckIn)(nil)).
		Where("session_date = ?", date).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.RemoveCheckIn: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ListCheckIns(ctx context.Context, db bun.IDB, date string) ([]CheckIn, error) {
	db = r.resolveDB(db)
	var checkIns []CheckIn
	err := db.NewSelect().
		Model(&checkIns).
		Where("session_date = ?", date).
		Order("checked_in_at ASC", "player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.ListCheckIns: %w", err)
	}
	return checkIns, nil
}
