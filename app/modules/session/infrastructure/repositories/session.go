package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new session repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateSession(ctx context.Context, db bun.IDB, session *Session) error {
	db = r.resolveDB(db)
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(session).Exec(ctx); err != nil {
		return fmt.Errorf("sessiondb.CreateSession: %w", err)
	}
	if len(session.Votes) > 0 {
		if err := r.ReplaceVotes(ctx, db, session.ID, session.Votes); err != nil {
			return err
		}
	}
	return nil
}

func (r *Impl) GetSession(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error) {
	return r.getSession(ctx, r.resolveDB(db), id, false)
}

func (r *Impl) GetSessionForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Session, error) {
	return r.getSession(ctx, r.resolveDB(db), id, true)
}

func (r *Impl) getSession(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Session, error) {
	session := new(Session)
	q := db.NewSelect().
		Model(session).
		Relation("Votes", orderVotes).
		Where("s.id = ?", id)
	// SQLite has no row locks; the ledger writer already serializes access.
	if lock && database.IsPostgres(db) {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessiondb.GetSession: %w", err)
	}
	return session, nil
}

func (r *Impl) ListSessions(ctx context.Context, db bun.IDB, status string) ([]Session, error) {
	db = r.resolveDB(db)
	var sessions []Session
	q := db.NewSelect().
		Model(&sessions).
		Relation("Votes", orderVotes).
		Order("s.session_date DESC", "s.created_at DESC")
	if status != "" {
		q = q.Where("s.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sessiondb.ListSessions: %w", err)
	}
	return sessions, nil
}

func (r *Impl) UpdateSession(ctx context.Context, db bun.IDB, session *Session) error {
	db = r.resolveDB(db)
	session.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(session).
		Column("participants", "games", "satisfaction", "status", "contested_by", "revision", "updated_at", "finalized_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sessiondb.UpdateSession: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ReplaceVotes(ctx context.Context, db bun.IDB, sessionID uuid.UUID, votes []Vote) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*Vote)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sessiondb.ReplaceVotes: delete: %w", err)
	}
	if len(votes) == 0 {
		return nil
	}
	for i := range votes {
		votes[i].SessionID = sessionID
	}
	if _, err := db.NewInsert().Model(&votes).Exec(ctx); err != nil {
		return fmt.Errorf("sessiondb.ReplaceVotes: insert: %w", err)
	}
	return nil
}

func orderVotes(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("position ASC")
}
