package sessionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "SessionService"

// Service is the session engine: pairings, scoring, scribe rotation,
// governance and the lightweight recording path.
type Service interface {
	GeneratePairings(ctx context.Context, players []sessiondomain.PlayerID) ([3]sessiondomain.Pairing, error)
	CalculatePoints(ctx context.Context, slot sessiondomain.Slot, own, opp *int, isWinner *bool) (float64, error)
	CurrentScribe(ctx context.Context, date time.Time) (sessiondomain.PlayerID, error)

	SubmitSession(ctx context.Context, req SubmitRequest) (*SessionView, error)
	CastVote(ctx context.Context, req VoteRequest) (*VoteOutcome, error)
	ResubmitSession(ctx context.Context, req ResubmitRequest) (*SessionView, error)
	GetSession(ctx context.Context, id uuid.UUID) (*SessionView, error)
	ListSessions(ctx context.Context, status sessiondomain.Status) ([]SessionView, error)

	RecordQuickSession(ctx context.Context, req QuickRequest) (*QuickResult, error)

	CheckIn(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error)
	CheckOut(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error)
	ListCheckIns(ctx context.Context, date time.Time) ([]sessiondomain.PlayerID, error)

	// Founders exposes the governance configuration, e.g. for tier lookups.
	Founders() sessiondomain.Founders
}

// Options carries the governance configuration.
type Options struct {
	Founders             sessiondomain.Founders
	EnforceCurrentScribe bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// SessionService implements the Service interface.
type SessionService struct {
	repo    sessiondb.Repository
	players ledgerdb.Repository
	ledger  ledgerservice.Applier
	writer  *ledgerservice.Writer
	opts    Options
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	repo sessiondb.Repository,
	players ledgerdb.Repository,
	ledger ledgerservice.Applier,
	writer *ledgerservice.Writer,
	opts Options,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionService{
		repo:    repo,
		players: players,
		ledger:  ledger,
		writer:  writer,
		opts:    opts,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
	}
}

func (s *SessionService) Founders() sessiondomain.Founders {
	return s.opts.Founders
}

// dateKey is the calendar date of t in the club time zone.
func (s *SessionService) dateKey(t time.Time) string {
	if t.IsZero() {
		t = s.opts.Now()
	}
	return sessiondomain.DateOf(t, s.opts.Founders.Location).Format(time.DateOnly)
}

// isFailure reports whether err is a domain rejection rather than an
// infrastructure fault.
func isFailure(err error) bool {
	return errors.Is(err, sessiondomain.ErrInvalidInput) ||
		errors.Is(err, sessiondomain.ErrIllegalTransition) ||
		errors.Is(err, sessiondb.ErrNotFound)
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
	s *SessionService,
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

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

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

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

// runInTx runs a read-only operation in its own transaction.
func runInTx[S any](
	s *SessionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (S, error),
) (results.OperationResult[S, error], error) {
	var out S
	var err error

	db := s.writer.DB()
	if db == nil {
		out, err = fn(ctx, nil)
	} else {
		err = db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			var txErr error
			out, txErr = fn(ctx, tx)
			return txErr
		})
	}
	return classify(out, err)
}

// runLocked runs a mutation through the ledger writer. A domain rejection
// rolls the transaction back and surfaces as a failure result.
func runLocked[S any](
	s *SessionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (S, error),
) (results.OperationResult[S, error], error) {
	var out S
	err := s.writer.Do(ctx, func(ctx context.Context, db bun.IDB) error {
		var txErr error
		out, txErr = fn(ctx, db)
		return txErr
	})
	return classify(out, err)
}

func classify[S any](out S, err error) (results.OperationResult[S, error], error) {
	if err != nil {
		if isFailure(err) {
			return results.FailureResult[S, error](err), nil
		}
		return results.OperationResult[S, error]{}, err
	}
	return results.SuccessResult[S, error](out), nil
}

var _ Service = (*SessionService)(nil)
