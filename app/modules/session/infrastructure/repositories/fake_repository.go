package sessiondb

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	CreateSessionFn       func(ctx context.Context, db bun.IDB, session *Session) error
	GetSessionFn          func(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error)
	GetSessionForUpdateFn func(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error)
	ListSessionsFn        func(ctx context.Context, db bun.IDB, status string) ([]Session, error)
	UpdateSessionFn       func(ctx context.Context, db bun.IDB, session *Session) error
	ReplaceVotesFn        func(ctx context.Context, db bun.IDB, sessionID uuid.UUID, votes []Vote) error

	trace []string
}

func (f *FakeRepository) Trace() []string {
	return slices.Clone(f.trace)
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) CreateSession(ctx context.Context, db bun.IDB, session *Session) error {
	f.record("CreateSession")
	if f.CreateSessionFn != nil {
		return f.CreateSessionFn(ctx, db, session)
	}
	return nil
}

func (f *FakeRepository) GetSession(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error) {
	f.record("GetSession")
	if f.GetSessionFn != nil {
		return f.GetSessionFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetSessionForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error) {
	f.record("GetSessionForUpdate")
	if f.GetSessionForUpdateFn != nil {
		return f.GetSessionForUpdateFn(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) ListSessions(ctx context.Context, db bun.IDB, status string) ([]Session, error) {
	f.record("ListSessions")
	if f.ListSessionsFn != nil {
		return f.ListSessionsFn(ctx, db, status)
	}
	return nil, nil
}

func (f *FakeRepository) UpdateSession(ctx context.Context, db bun.IDB, session *Session) error {
	f.record("UpdateSession")
	if f.UpdateSessionFn != nil {
		return f.UpdateSessionFn(ctx, db, session)
	}
	return nil
}

func (f *FakeRepository) ReplaceVotes(ctx context.Context, db bun.IDB, sessionID uuid.UUID, votes []Vote) error {
	f.record("ReplaceVotes")
	if f.ReplaceVotesFn != nil {
		return f.ReplaceVotesFn(ctx, db, sessionID, votes)
	}
	return nil
}

var _ Repository = (*FakeRepository)(nil)
