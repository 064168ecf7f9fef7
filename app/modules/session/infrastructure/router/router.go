package sessionrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"
)

// SessionRouter handles routing for session module events.
type SessionRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	metrics    metrics.OperationMetrics
	tracer     trace.Tracer
}

// NewSessionRouter creates a new SessionRouter.
func NewSessionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *SessionRouter {
	return &SessionRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		metrics:    m,
		tracer:     tracer,
	}
}

// Configure sets up the router with the session handlers.
func (r *SessionRouter) Configure(_ context.Context, handlers sessionhandlers.Handlers) error {
	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	r.RegisterHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    metrics.OperationMetrics
}

// registerHandler registers a typed handler. The wrapper publishes the
// returned results itself, so the Watermill handler has no publisher.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "session." + topic

	deps.router.AddConsumerHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.publisher,
			deps.metrics,
			handler,
		),
	)
}

// RegisterHandlers registers the session request handlers.
func (r *SessionRouter) RegisterHandlers(handlers sessionhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, sessionevents.SubmitRequestedV1, handlers.HandleSubmitRequested)
	registerHandler(deps, sessionevents.VoteRequestedV1, handlers.HandleVoteRequested)
	registerHandler(deps, sessionevents.ResubmitRequestedV1, handlers.HandleResubmitRequested)
	registerHandler(deps, sessionevents.QuickRequestedV1, handlers.HandleQuickRequested)
}

// Close stops the router.
func (r *SessionRouter) Close() error {
	return r.Router.Close()
}
