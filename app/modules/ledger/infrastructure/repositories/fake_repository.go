package ledgerdb

import (
	"context"
	"slices"

	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
// Unset functions return zero values.
type FakeRepository struct {
	RegisterPlayerFn           func(ctx context.Context, db bun.IDB, player *Player) error
	GetPlayerFn                func(ctx context.Context, db bun.IDB, id string) (*Player, error)
	GetPlayersFn               func(ctx context.Context, db bun.IDB, ids []string) ([]Player, error)
	ListPlayersFn              func(ctx context.Context, db bun.IDB) ([]Player, error)
	UpdatePlayerTotalsFn       func(ctx context.Context, db bun.IDB, players []Player) error
	GetTeamsFn                 func(ctx context.Context, db bun.IDB, keys []string) ([]Team, error)
	ListTeamsFn                func(ctx context.Context, db bun.IDB) ([]Team, error)
	UpsertTeamsFn              func(ctx context.Context, db bun.IDB, teams []Team) error
	DeleteAllTeamsFn           func(ctx context.Context, db bun.IDB) error
	InsertGameRecordsFn        func(ctx context.Context, db bun.IDB, records []GameRecord) error
	ListGameRecordsFn          func(ctx context.Context, db bun.IDB) ([]GameRecord, error)
	ListGameRecordsForPlayerFn func(ctx context.Context, db bun.IDB, playerID string) ([]GameRecord, error)
	AddCheckInFn               func(ctx context.Context, db bun.IDB, checkIn *CheckIn) error
	RemoveCheckInFn            func(ctx context.Context, db bun.IDB, date, playerID string) error
	ListCheckInsFn             func(ctx context.Context, db bun.IDB, date string) ([]CheckIn, error)

	trace []string
}

// Trace returns the names of the methods called, in order.
func (f *FakeRepository) Trace() []string {
	return slices.Clone(f.trace)
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) RegisterPlayer(ctx context.Context, db bun.IDB, player *Player) error {
	f.record("RegisterPlayer")
	if f.RegisterPlayerFn != nil {
		return f.RegisterPlayerFn(ctx, db, player)
	}
	return nil
}

func (f *FakeRepository) GetPlayer(ctx context.Context, db bun.IDB, id string) (*Player, error) {
	f.record("GetPlayer")
	if f.GetPlayerFn != nil {
		return f.GetPlayerFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetPlayers(ctx context.Context, db bun.IDB, ids []string) ([]Player, error) {
	f.record("GetPlayers")
	if f.GetPlayersFn != nil {
		return f.GetPlayersFn(ctx, db, ids)
	}
	return nil, nil
}

func (f *FakeRepository) ListPlayers(ctx context.Context, db bun.IDB) ([]Player, error) {
	f.record("ListPlayers")
	if f.ListPlayersFn != nil {
		return f.ListPlayersFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) UpdatePlayerTotals(ctx context.Context, db bun.IDB, players []Player) error {
	f.record("UpdatePlayerTotals")
	if f.UpdatePlayerTotalsFn != nil {
		return f.UpdatePlayerTotalsFn(ctx, db, players)
	}
	return nil
}

func (f *FakeRepository) GetTeams(ctx context.Context, db bun.IDB, keys []string) ([]Team, error) {
	f.record("GetTeams")
	if f.GetTeamsFn != nil {
		return f.GetTeamsFn(ctx, db, keys)
	}
	return nil, nil
}

func (f *FakeRepository) ListTeams(ctx context.Context, db bun.IDB) ([]Team, error) {
	f.record("ListTeams")
	if f.ListTeamsFn != nil {
		return f.ListTeamsFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) UpsertTeams(ctx context.Context, db bun.IDB, teams []Team) error {
	f.record("UpsertTeams")
	if f.UpsertTeamsFn != nil {
		return f.UpsertTeamsFn(ctx, db, teams)
	}
	return nil
}

func (f *FakeRepository) DeleteAllTeams(ctx context.Context, db bun.IDB) error {
	f.record("DeleteAllTeams")
	if f.DeleteAllTeamsFn != nil {
		return f.DeleteAllTeamsFn(ctx, db)
	}
	return nil
}

func (f *FakeRepository) InsertGameRecords(ctx context.Context, db bun.IDB, records []GameRecord) error {
	f.record("InsertGameRecords")
	if f.InsertGameRecordsFn != nil {
		return f.InsertGameRecordsFn(ctx, db, records)
	}
	return nil
}

func (f *FakeRepository) ListGameRecords(ctx context.Context, db bun.IDB) ([]GameRecord, error) {
	f.record("ListGameRecords")
	if f.ListGameRecordsFn != nil {
		return f.ListGameRecordsFn(ctx, db)
	}
	return nil, nil
}

func (f *FakeRepository) ListGameRecordsForPlayer(ctx context.Context, db bun.IDB, playerID string) ([]GameRecord, error) {
	f.record("ListGameRecordsForPlayer")
	if f.ListGameRecordsForPlayerFn != nil {
		return f.ListGameRecordsForPlayerFn(ctx, db, playerID)
	}
	return nil, nil
}

func (f *FakeRepository) AddCheckIn(ctx context.Context, db bun.IDB, checkIn *CheckIn) error {
	f.record("AddCheckIn")
	if f.AddCheckInFn != nil {
		return f.AddCheckInFn(ctx, db, checkIn)
	}
	return nil
}

func (f *FakeRepository) RemoveCheckIn(ctx context.Context, db bun.IDB, date, playerID string) error {
	f.record("RemoveCheckIn")
	if f.RemoveCheckInFn != nil {
		return f.RemoveCheckInFn(ctx, db, date, playerID)
	}
	return nil
}

func (f *FakeRepository) ListCheckIns(ctx context.Context, db bun.IDB, date string) ([]CheckIn, error) {
	f.record("ListCheckIns")
	if f.ListCheckInsFn != nil {
		return f.ListCheckInsFn(ctx, db, date)
	}
	return nil, nil
}

var _ Repository = (*FakeRepository)(nil)
