package sessiondb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for session persistence.
type Repository interface {
	CreateSession(ctx context.Context, db bun.IDB, session *Session) error

	// GetSession loads a session with its votes ordered by position.
	// Returns ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error)

	// GetSessionForUpdate is GetSession with the row locked on Postgres.
	GetSessionForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error)

	// ListSessions returns sessions newest first. An empty status lists all.
	ListSessions(ctx context.Context, db bun.IDB, status string) ([]Session, error)

	// UpdateSession writes the mutable columns. Votes are saved separately.
	UpdateSession(ctx context.Context, db bun.IDB, session *Session) error

	// ReplaceVotes makes votes the complete ballot list of the session.
	ReplaceVotes(ctx context.Context, db bun.IDB, sessionID uuid.UUID, votes []Vote) error
}
