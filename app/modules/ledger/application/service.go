package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "LedgerService"

// Service is the player registry on top of the ledger.
type Service interface {
	RegisterPlayer(ctx context.Context, id, displayName string) (*ledgerdb.Player, error)
	GetPlayer(ctx context.Context, id string) (*ledgerdb.Player, error)
	ListPlayers(ctx context.Context) ([]ledgerdb.Player, error)
}

// LedgerService implements Service and Applier.
type LedgerService struct {
	repo       ledgerdb.Repository
	writer     *Writer
	ratingMode sessiondomain.RatingMode
	logger     *slog.Logger
	metrics    metrics.OperationMetrics
	tracer     trace.Tracer
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	repo ledgerdb.Repository,
	writer *Writer,
	ratingMode sessiondomain.RatingMode,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	if ratingMode == "" {
		ratingMode = sessiondomain.RatingModeMean
	}
	return &LedgerService{
		repo:       repo,
		writer:     writer,
		ratingMode: ratingMode,
		logger:     logger,
		metrics:    m,
		tracer:     tracer,
	}
}

// RegisterPlayer adds a member to the club or renames an existing one.
func (s *LedgerService) RegisterPlayer(ctx context.Context, id, displayName string) (*ledgerdb.Player, error) {
	result, err := withTelemetry(s, ctx, "RegisterPlayer", id, func(ctx context.Context) (results.OperationResult[*ledgerdb.Player, error], error) {
		id, displayName := strings.TrimSpace(id), strings.TrimSpace(displayName)
		if err := validatePlayerID(id); err != nil {
			return results.FailureResult[*ledgerdb.Player, error](err), nil
		}
		if displayName == "" {
			displayName = id
		}

		player := &ledgerdb.Player{ID: id, DisplayName: displayName}
		err := s.writer.Do(ctx, func(ctx context.Context, db bun.IDB) error {
			if err := s.repo.RegisterPlayer(ctx, db, player); err != nil {
				return err
			}
			stored, err := s.repo.GetPlayer(ctx, db, id)
			if err != nil {
				return err
			}
			player = stored
			return nil
		})
		if err != nil {
			return results.OperationResult[*ledgerdb.Player, error]{}, fmt.Errorf("failed to register player: %w", err)
		}
		return results.SuccessResult[*ledgerdb.Player, error](player), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

// GetPlayer returns a registered player with totals.
func (s *LedgerService) GetPlayer(ctx context.Context, id string) (*ledgerdb.Player, error) {
	result, err := withTelemetry(s, ctx, "GetPlayer", id, func(ctx context.Context) (results.OperationResult[*ledgerdb.Player, error], error) {
		player, err := s.repo.GetPlayer(ctx, s.readDB(), id)
		if err != nil {
			if errors.Is(err, ledgerdb.ErrNotFound) {
				return results.FailureResult[*ledgerdb.Player, error](err), nil
			}
			return results.OperationResult[*ledgerdb.Player, error]{}, fmt.Errorf("failed to get player: %w", err)
		}
		return results.SuccessResult[*ledgerdb.Player, error](player), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

// ListPlayers returns every registered player ordered by id.
func (s *LedgerService) ListPlayers(ctx context.Context) ([]ledgerdb.Player, error) {
	return s.repo.ListPlayers(ctx, s.readDB())
}

func (s *LedgerService) readDB() bun.IDB {
	if s.writer == nil || s.writer.DB() == nil {
		return nil
	}
	return s.writer.DB()
}

// validatePlayerID rejects ids that would corrupt canonical team keys.
func validatePlayerID(id string) error {
	if id == "" {
		return sessiondomain.NewInvalidInput("id", "player id is required")
	}
	if strings.Contains(id, sessiondomain.TeamKeySeparator) {
		return sessiondomain.NewInvalidInput("id", "player id %q must not contain %q", id, sessiondomain.TeamKeySeparator)
	}
	return nil
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *LedgerService,
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

var (
	_ Service = (*LedgerService)(nil)
	_ Applier = (*LedgerService)(nil)
)
