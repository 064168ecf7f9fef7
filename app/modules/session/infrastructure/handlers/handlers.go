package sessionhandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// SessionHandlers implements the Handlers interface for session events and
// the session HTTP API.
type SessionHandlers struct {
	service   sessionservice.Service
	publisher message.Publisher
	dates     *DateParser
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSessionHandlers creates a new SessionHandlers instance. publisher is
// used by the HTTP API to emit notifications and may be nil.
func NewSessionHandlers(
	service sessionservice.Service,
	publisher message.Publisher,
	logger *slog.Logger,
	tracer trace.Tracer,
) *SessionHandlers {
	return &SessionHandlers{
		service:   service,
		publisher: publisher,
		dates:     NewDateParser(service.Founders().Location),
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// failureKind reports the failure kind for domain rejections. Anything else
// is an infrastructure error and is returned to the router for redelivery.
func failureKind(err error) (string, bool) {
	switch {
	case errors.Is(err, sessiondomain.ErrInvalidInput):
		return sessionevents.KindInvalidInput, true
	case errors.Is(err, sessiondomain.ErrIllegalTransition):
		return sessionevents.KindIllegalTransition, true
	case errors.Is(err, sessiondb.ErrNotFound):
		return sessionevents.KindNotFound, true
	default:
		return "", false
	}
}

// failure turns a service error into a *.failed event, or passes it through.
func (h *SessionHandlers) failure(ctx context.Context, topic string, sessionID *uuid.UUID, err error) ([]handlerwrapper.Result, error) {
	kind, ok := failureKind(err)
	if !ok {
		return nil, err
	}

	h.logger.InfoContext(ctx, "Session request rejected",
		attr.ExtractCorrelationID(ctx),
		attr.String("topic", topic),
		attr.String("kind", kind),
		attr.Error(err),
	)

	return []handlerwrapper.Result{{
		Topic: topic,
		Payload: sessionevents.FailedPayloadV1{
			SessionID: sessionID,
			Kind:      kind,
			Reason:    err.Error(),
		},
	}}, nil
}
