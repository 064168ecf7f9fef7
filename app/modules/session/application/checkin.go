package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
)

// CheckIn claims one of the four places in the session on date. Checking in
// twice is a no-op.
func (s *SessionService) CheckIn(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error) {
	day := s.dateKey(date)
	result, err := withTelemetry(s, ctx, "CheckIn", day, func(ctx context.Context) (results.OperationResult[[]sessiondomain.PlayerID, error], error) {
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) ([]sessiondomain.PlayerID, error) {
			if err := s.requireRegistered(ctx, db, []sessiondomain.PlayerID{playerID}); err != nil {
				return nil, err
			}
			current, err := s.checkedIn(ctx, db, day)
			if err != nil {
				return nil, err
			}
			if slices.Contains(current, playerID) {
				return current, nil
			}
			if len(current) >= sessiondomain.PlayersPerSession {
				return nil, sessiondomain.NewInvalidInput("check_in", "session on %s already has %d players", day, sessiondomain.PlayersPerSession)
			}

			err = s.players.AddCheckIn(ctx, db, &ledgerdb.CheckIn{
				SessionDate: day,
				PlayerID:    string(playerID),
				CheckedInAt: s.opts.Now().UTC(),
			})
			if err != nil && !errors.Is(err, ledgerdb.ErrAlreadyCheckedIn) {
				return nil, fmt.Errorf("failed to check in: %w", err)
			}
			return append(current, playerID), nil
		})
	})
	return unwrap(result, err)
}

// CheckOut releases a player's place.
func (s *SessionService) CheckOut(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error) {
	day := s.dateKey(date)
	result, err := withTelemetry(s, ctx, "CheckOut", day, func(ctx context.Context) (results.OperationResult[[]sessiondomain.PlayerID, error], error) {
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) ([]sessiondomain.PlayerID, error) {
			if err := s.players.RemoveCheckIn(ctx, db, day, string(playerID)); err != nil {
				if errors.Is(err, ledgerdb.ErrNotFound) {
					return nil, sessiondomain.NewInvalidInput("check_in", "%q is not checked in for %s", playerID, day)
				}
				return nil, fmt.Errorf("failed to check out: %w", err)
			}
			return s.checkedIn(ctx, db, day)
		})
	})
	return unwrap(result, err)
}

// ListCheckIns returns the players checked in for date in arrival order.
func (s *SessionService) ListCheckIns(ctx context.Context, date time.Time) ([]sessiondomain.PlayerID, error) {
	day := s.dateKey(date)
	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) ([]sessiondomain.PlayerID, error) {
		return s.checkedIn(ctx, db, day)
	})
	return unwrap(result, err)
}

func (s *SessionService) checkedIn(ctx context.Context, db bun.IDB, day string) ([]sessiondomain.PlayerID, error) {
	rows, err := s.players.ListCheckIns(ctx, db, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	ids := make([]sessiondomain.PlayerID, len(rows))
	for i, r := range rows {
		ids[i] = sessiondomain.PlayerID(r.PlayerID)
	}
	return ids, nil
}
