package leaderboardservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	leaderboardcache "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/cache"
	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "LeaderboardService"

// Query selects a leaderboard variant. Empty fields take defaults.
type Query struct {
	Mode      string
	Threshold *int
	View      string
}

// Service ranks the ledger and keeps it honest.
type Service interface {
	GetLeaderboard(ctx context.Context, q Query) (*leaderboarddomain.Leaderboard, error)
	// Reconcile compares the ledger with totals replayed from game history
	// and fails with a *sessiondomain.ConsistencyError on any divergence.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
	// Rebuild overwrites ledger totals with replayed history.
	Rebuild(ctx context.Context) (*RebuildReport, error)
	InvalidateCache(ctx context.Context) error
	ExportStandings(ctx context.Context, q Query) ([]byte, error)
	PointsHistoryChart(ctx context.Context, playerID string) ([]byte, error)
}

// Overwriter replaces ledger totals inside the caller's transaction.
type Overwriter interface {
	Overwrite(ctx context.Context, db bun.IDB, history *sessiondomain.Tally) error
}

// LeaderboardService implements Service.
type LeaderboardService struct {
	repo             ledgerdb.Repository
	writer           *ledgerservice.Writer
	overwriter       Overwriter
	cache            leaderboardcache.Cache
	defaultThreshold int
	logger           *slog.Logger
	metrics          metrics.OperationMetrics
	tracer           trace.Tracer
	now              func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService. A nil cache
// disables caching.
func NewLeaderboardService(
	repo ledgerdb.Repository,
	writer *ledgerservice.Writer,
	overwriter Overwriter,
	cache leaderboardcache.Cache,
	defaultThreshold int,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = leaderboardcache.Noop{}
	}
	return &LeaderboardService{
		repo:             repo,
		writer:           writer,
		overwriter:       overwriter,
		cache:            cache,
		defaultThreshold: defaultThreshold,
		logger:           logger,
		metrics:          m,
		tracer:           tracer,
		now:              time.Now,
	}
}

// GetLeaderboard serves from the cache when it can and from the live ledger
// otherwise. Cache failures are logged and never surface to the caller.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q Query) (*leaderboarddomain.Leaderboard, error) {
	result, err := withTelemetry(s, ctx, "GetLeaderboard", q.Mode, func(ctx context.Context) (results.OperationResult[*leaderboarddomain.Leaderboard, error], error) {
		mode, view, threshold, err := s.resolve(q)
		if err != nil {
			return results.FailureResult[*leaderboarddomain.Leaderboard, error](err), nil
		}

		cached, err := s.cache.Get(ctx, mode, threshold, view)
		switch {
		case err == nil:
			return results.SuccessResult[*leaderboarddomain.Leaderboard, error](cached), nil
		case !errors.Is(err, leaderboardcache.ErrMiss):
			s.logger.WarnContext(ctx, "Leaderboard cache read failed",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}

		// The generation is read before the ledger so an invalidation that
		// lands while the board is built keeps it out of the cache.
		generation, genErr := s.cache.Generation(ctx)
		if genErr != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache generation read failed",
				attr.ExtractCorrelationID(ctx),
				attr.Error(genErr),
			)
		}

		entries, err := s.standings(ctx, s.readDB(), mode, threshold)
		if err != nil {
			return results.OperationResult[*leaderboarddomain.Leaderboard, error]{}, err
		}

		board := &leaderboarddomain.Leaderboard{
			Mode:        mode,
			View:        view,
			Threshold:   threshold,
			Entries:     leaderboarddomain.Rank(entries, view),
			GeneratedAt: s.now().UTC(),
		}
		if genErr == nil {
			switch err := s.cache.Set(ctx, board, generation); {
			case errors.Is(err, leaderboardcache.ErrStale):
				s.logger.DebugContext(ctx, "Leaderboard changed while ranking, not caching",
					attr.ExtractCorrelationID(ctx),
				)
			case err != nil:
				s.logger.WarnContext(ctx, "Leaderboard cache write failed",
					attr.ExtractCorrelationID(ctx),
					attr.Error(err),
				)
			}
		}
		return results.SuccessResult[*leaderboarddomain.Leaderboard, error](board), nil
	})
	return unwrap(result, err)
}

// InvalidateCache drops every cached leaderboard.
func (s *LeaderboardService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

func (s *LeaderboardService) resolve(q Query) (leaderboarddomain.Mode, leaderboarddomain.View, int, error) {
	mode, err := leaderboarddomain.ParseMode(q.Mode)
	if err != nil {
		return "", "", 0, err
	}
	view, err := leaderboarddomain.ParseView(q.View)
	if err != nil {
		return "", "", 0, err
	}
	threshold := s.defaultThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if threshold < 0 {
		return "", "", 0, sessiondomain.NewInvalidInput("threshold", "threshold must not be negative, got %d", threshold)
	}
	return mode, view, threshold, nil
}

// standings reads the ledger and builds unranked entries for mode.
func (s *LeaderboardService) standings(ctx context.Context, db bun.IDB, mode leaderboarddomain.Mode, threshold int) ([]leaderboarddomain.Entry, error) {
	players, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	var rows []leaderboarddomain.Row
	switch mode {
	case leaderboarddomain.ModeDoubles:
		names := make(map[string]string, len(players))
		for _, p := range players {
			names[p.ID] = p.DisplayName
		}
		teams, err := s.repo.ListTeams(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", err)
		}
		rows = make([]leaderboarddomain.Row, 0, len(teams))
		for i := range teams {
			t := &teams[i]
			rows = append(rows, leaderboarddomain.Row{
				ID:      t.TeamKey,
				Name:    leaderboarddomain.TeamName(nameOr(names, t.PlayerA), nameOr(names, t.PlayerB)),
				Members: []sessiondomain.PlayerID{sessiondomain.PlayerID(t.PlayerA), sessiondomain.PlayerID(t.PlayerB)},
				Totals:  t.Totals(),
			})
		}
	default:
		rows = make([]leaderboarddomain.Row, 0, len(players))
		for i := range players {
			p := &players[i]
			rows = append(rows, leaderboarddomain.Row{
				ID:           p.ID,
				Name:         p.DisplayName,
				Totals:       p.Totals(),
				Satisfaction: p.Rating,
			})
		}
	}
	return leaderboarddomain.BuildStandings(rows, threshold), nil
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func (s *LeaderboardService) readDB() bun.IDB {
	if s.writer == nil || s.writer.DB() == nil {
		return nil
	}
	return s.writer.DB()
}

func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *LeaderboardService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

var _ Service = (*LeaderboardService)(nil)
