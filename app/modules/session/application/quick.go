package sessionservice

import (
	"context"
	"fmt"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
)

// RecordQuickSession scores the games and credits them to the ledger at
// once. There is no pending session and no satisfaction rating.
func (s *SessionService) RecordQuickSession(ctx context.Context, req QuickRequest) (*QuickResult, error) {
	day := s.dateKey(req.Date)
	result, err := withTelemetry(s, ctx, "RecordQuickSession", day, func(ctx context.Context) (results.OperationResult[*QuickResult, error], error) {
		games, err := sessiondomain.BuildGames(req.Participants, req.Games)
		if err != nil {
			return results.FailureResult[*QuickResult, error](err), nil
		}
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) (*QuickResult, error) {
			applied, err := s.ledger.Apply(ctx, db, ledgerservice.Entry{Date: day, Games: games})
			if err != nil {
				if isFailure(err) {
					return nil, err
				}
				return nil, fmt.Errorf("failed to apply quick session: %w", err)
			}
			return &QuickResult{
				Date:         day,
				Participants: req.Participants,
				Games:        games,
				Awards:       applied.Awards,
			}, nil
		})
	})
	return unwrap(result, err)
}
