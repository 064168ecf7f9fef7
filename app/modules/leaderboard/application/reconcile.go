package leaderboardservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
)

// ReconcileReport describes what a reconciliation looked at.
type ReconcileReport struct {
	Records   int       `json:"records"`
	Players   int       `json:"players"`
	Teams     int       `json:"teams"`
	CheckedAt time.Time `json:"checked_at"`
}

// RebuildReport lists the divergences a rebuild repaired.
type RebuildReport struct {
	ReconcileReport
	Repaired []sessiondomain.Mismatch `json:"repaired"`
}

type comparison struct {
	history    *sessiondomain.Tally
	mismatches []sessiondomain.Mismatch
	report     ReconcileReport
}

// Reconcile runs under the ledger lock so it sees a snapshot no finalize is
// halfway through.
func (s *LeaderboardService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	result, err := withTelemetry(s, ctx, "Reconcile", "ledger", func(ctx context.Context) (results.OperationResult[*ReconcileReport, error], error) {
		var cmp *comparison
		err := s.writer.Do(ctx, func(ctx context.Context, db bun.IDB) error {
			var err error
			cmp, err = s.compare(ctx, db)
			return err
		})
		if err != nil {
			return results.OperationResult[*ReconcileReport, error]{}, err
		}

		if len(cmp.mismatches) > 0 {
			return results.FailureResult[*ReconcileReport, error](&sessiondomain.ConsistencyError{Mismatches: cmp.mismatches}), nil
		}

		s.logger.InfoContext(ctx, "Ledger reconciled",
			attr.ExtractCorrelationID(ctx),
			attr.Int("records", cmp.report.Records),
			attr.Int("players", cmp.report.Players),
			attr.Int("teams", cmp.report.Teams),
		)
		return results.SuccessResult[*ReconcileReport, error](&cmp.report), nil
	})
	return unwrap(result, err)
}

// Rebuild replays history and overwrites every total in one ledger
// transaction. Ratings survive because they are not derivable from games.
func (s *LeaderboardService) Rebuild(ctx context.Context) (*RebuildReport, error) {
	result, err := withTelemetry(s, ctx, "Rebuild", "ledger", func(ctx context.Context) (results.OperationResult[*RebuildReport, error], error) {
		if s.overwriter == nil {
			return results.OperationResult[*RebuildReport, error]{}, errors.New("rebuild is not configured")
		}

		var cmp *comparison
		err := s.writer.Do(ctx, func(ctx context.Context, db bun.IDB) error {
			var err error
			cmp, err = s.compare(ctx, db)
			if err != nil {
				return err
			}
			return s.overwriter.Overwrite(ctx, db, cmp.history)
		})
		if err != nil {
			return results.OperationResult[*RebuildReport, error]{}, fmt.Errorf("failed to rebuild ledger: %w", err)
		}

		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache invalidation failed after rebuild",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}

		s.logger.InfoContext(ctx, "Ledger rebuilt from history",
			attr.ExtractCorrelationID(ctx),
			attr.Int("records", cmp.report.Records),
			attr.Int("repaired", len(cmp.mismatches)),
		)

		repaired := cmp.mismatches
		if repaired == nil {
			repaired = []sessiondomain.Mismatch{}
		}
		return results.SuccessResult[*RebuildReport, error](&RebuildReport{
			ReconcileReport: cmp.report,
			Repaired:        repaired,
		}), nil
	})
	return unwrap(result, err)
}

// compare replays game history and diffs it against stored totals.
func (s *LeaderboardService) compare(ctx context.Context, db bun.IDB) (*comparison, error) {
	records, err := s.repo.ListGameRecords(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list game records: %w", err)
	}
	players, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	teams, err := s.repo.ListTeams(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	history := ledgerservice.Replay(records)

	storedPlayers := make(map[string]sessiondomain.Totals, len(players))
	for i := range players {
		storedPlayers[players[i].ID] = players[i].Totals()
	}
	storedTeams := make(map[string]sessiondomain.Totals, len(teams))
	for i := range teams {
		storedTeams[teams[i].TeamKey] = teams[i].Totals()
	}

	computedPlayers := make(map[string]sessiondomain.Totals, len(history.Players))
	for id, t := range history.Players {
		computedPlayers[string(id)] = *t
	}
	computedTeams := make(map[string]sessiondomain.Totals, len(history.Teams))
	for key, t := range history.Teams {
		computedTeams[string(key)] = *t
	}

	mismatches := leaderboarddomain.Compare(leaderboarddomain.EntityPlayer, storedPlayers, computedPlayers)
	mismatches = append(mismatches, leaderboarddomain.Compare(leaderboarddomain.EntityTeam, storedTeams, computedTeams)...)

	return &comparison{
		history:    history,
		mismatches: mismatches,
		report: ReconcileReport{
			Records:   len(records),
			Players:   len(players),
			Teams:     len(teams),
			CheckedAt: s.now().UTC(),
		},
	}, nil
}
