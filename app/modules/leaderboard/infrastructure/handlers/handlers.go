package leaderboardhandlers

import (
	"context"
	"errors"
	"log/slog"

	leaderboardevents "github.com/Black-And-White-Club/doubles-bot/app/events/leaderboard"
	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// MetadataEventType tells a reply_to subscriber which payload it received.
const MetadataEventType = "event_type"

// Enqueuer schedules an asynchronous reconciliation.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context) error
}

// LeaderboardHandlers handles leaderboard events and HTTP requests.
type LeaderboardHandlers struct {
	service   leaderboardservice.Service
	publisher message.Publisher
	enqueuer  Enqueuer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers. enqueuer may be
// nil when no job queue runs.
func NewLeaderboardHandlers(
	service leaderboardservice.Service,
	publisher message.Publisher,
	enqueuer Enqueuer,
	logger *slog.Logger,
	tracer trace.Tracer,
) *LeaderboardHandlers {
	return &LeaderboardHandlers{
		service:   service,
		publisher: publisher,
		enqueuer:  enqueuer,
		logger:    logger,
		tracer:    tracer,
	}
}

// HandleLedgerUpdated drops cached leaderboards. The payload is only a hint
// and is never read as data; a failed invalidation is bounded by the TTL.
func (h *LeaderboardHandlers) HandleLedgerUpdated(ctx context.Context, payload *ledgerevents.UpdatedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	if err := h.service.InvalidateCache(ctx); err != nil {
		h.logger.WarnContext(ctx, "Leaderboard cache not invalidated",
			attr.ExtractCorrelationID(ctx),
			attr.String("source", payload.Source),
			attr.Error(err),
		)
		return nil, nil
	}

	h.logger.DebugContext(ctx, "Leaderboard cache invalidated",
		attr.ExtractCorrelationID(ctx),
		attr.String("source", payload.Source),
	)
	return nil, nil
}

// HandleLeaderboardRequested answers on the request's reply_to subject, or
// the default topics when there is none.
func (h *LeaderboardHandlers) HandleLeaderboardRequested(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	board, err := h.service.GetLeaderboard(ctx, leaderboardservice.Query{
		Mode:      payload.Mode,
		Threshold: payload.Threshold,
		View:      payload.View,
	})
	if err != nil {
		status, kind := httpx.Classify(err)
		if status >= 500 {
			return nil, err
		}
		h.logger.InfoContext(ctx, "Leaderboard request rejected",
			attr.ExtractCorrelationID(ctx),
			attr.String("kind", kind),
			attr.Error(err),
		)
		return []handlerwrapper.Result{{
			Topic:    handlerwrapper.ReplyTopic(ctx, leaderboardevents.FailedV1),
			Payload:  leaderboardevents.FailedPayloadV1{Reason: err.Error(), Kind: kind},
			Metadata: map[string]string{MetadataEventType: leaderboardevents.FailedV1},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic: handlerwrapper.ReplyTopic(ctx, leaderboardevents.ResponseV1),
		Payload: leaderboardevents.ResponsePayloadV1{
			Mode:        board.Mode,
			View:        board.View,
			Threshold:   board.Threshold,
			Entries:     board.Entries,
			GeneratedAt: board.GeneratedAt,
		},
		Metadata: map[string]string{MetadataEventType: leaderboardevents.ResponseV1},
	}}, nil
}

// notify publishes hints after a committed mutation; failures are logged.
func (h *LeaderboardHandlers) notify(ctx context.Context, results ...handlerwrapper.Result) {
	if h.publisher == nil {
		return
	}
	if err := handlerwrapper.Publish(ctx, h.publisher, results...); err != nil {
		h.logger.WarnContext(ctx, "Failed to publish leaderboard notification",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}
