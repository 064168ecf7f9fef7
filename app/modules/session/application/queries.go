package sessionservice

import (
	"context"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetSession returns a session with its full vote audit trail, including
// non-binding ordinary votes.
func (s *SessionService) GetSession(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	result, err := withTelemetry(s, ctx, "GetSession", id.String(), func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (*SessionView, error) {
			row, err := s.repo.GetSession(ctx, db, id)
			if err != nil {
				return nil, err
			}
			return newSessionView(row), nil
		})
	})
	return unwrap(result, err)
}

// ListSessions returns sessions newest first, optionally filtered by status.
func (s *SessionService) ListSessions(ctx context.Context, status sessiondomain.Status) ([]SessionView, error) {
	switch status {
	case "", sessiondomain.StatusPending, sessiondomain.StatusContested, sessiondomain.StatusFinalized:
	default:
		return nil, sessiondomain.NewInvalidInput("status", "unknown status %q", status)
	}

	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) ([]SessionView, error) {
		rows, err := s.repo.ListSessions(ctx, db, string(status))
		if err != nil {
			return nil, err
		}
		views := make([]SessionView, len(rows))
		for i := range rows {
			views[i] = *newSessionView(&rows[i])
		}
		return views, nil
	})
	return unwrap(result, err)
}
