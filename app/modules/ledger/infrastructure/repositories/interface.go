package ledgerdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for ledger persistence. Every method
// accepts an optional bun.IDB so callers can run it inside the ledger
// transaction; a nil db falls back to the repository's connection.
//
// Error semantics:
//   - ErrNotFound: Record does not exist or an UPDATE/DELETE matched no rows
//   - ErrAlreadyCheckedIn: duplicate check-in for a date
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// RegisterPlayer inserts a player or renames an existing one. Totals are never touched.
	RegisterPlayer(ctx context.Context, db bun.IDB, player *Player) error
	GetPlayer(ctx context.Context, db bun.IDB, id string) (*Player, error)
	// GetPlayers returns the players that exist among ids, ordered by id.
	GetPlayers(ctx context.Context, db bun.IDB, ids []string) ([]Player, error)
	ListPlayers(ctx context.Context, db bun.IDB) ([]Player, error)
	// UpdatePlayerTotals writes totals and rating for each player.
	UpdatePlayerTotals(ctx context.Context, db bun.IDB, players []Player) error

	GetTeams(ctx context.Context, db bun.IDB, keys []string) ([]Team, error)
	ListTeams(ctx context.Context, db bun.IDB) ([]Team, error)
	UpsertTeams(ctx context.Context, db bun.IDB, teams []Team) error
	DeleteAllTeams(ctx context.Context, db bun.IDB) error

	InsertGameRecords(ctx context.Context, db bun.IDB, records []GameRecord) error
	// ListGameRecords returns the full history in the order it was accepted.
	ListGameRecords(ctx context.Context, db bun.IDB) ([]GameRecord, error)
	ListGameRecordsForPlayer(ctx context.Context, db bun.IDB, playerID string) ([]GameRecord, error)

	AddCheckIn(ctx context.Context, db bun.IDB, checkIn *CheckIn) error
	RemoveCheckIn(ctx context.Context, db bun.IDB, date, playerID string) error
	ListCheckIns(ctx context.Context, db bun.IDB, date string) ([]CheckIn, error)
}
