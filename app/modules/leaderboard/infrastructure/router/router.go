package leaderboardrouter

import (
	"context"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	leaderboardevents "github.com/Black-And-White-Club/doubles-bot/app/events/leaderboard"
	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	leaderboardhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/handlers"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardRouter handles routing for leaderboard module events.
type LeaderboardRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	metrics    metrics.OperationMetrics
	tracer     trace.Tracer
}

// NewLeaderboardRouter creates a new LeaderboardRouter.
func NewLeaderboardRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardRouter {
	return &LeaderboardRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		metrics:    m,
		tracer:     tracer,
	}
}

// Configure registers the leaderboard handlers. Router-wide middleware is
// owned by whoever builds the shared router; only per-handler retries are
// added here.
func (r *LeaderboardRouter) Configure(_ context.Context, handlers leaderboardhandlers.Handlers) error {
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

func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "leaderboard." + topic

	h := deps.router.AddConsumerHandler(
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
	h.AddMiddleware(middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      2,
		Logger:          watermill.NewSlogLogger(deps.logger),
	}.Middleware)
}

// RegisterHandlers registers the ledger hint consumer and the bus query.
func (r *LeaderboardRouter) RegisterHandlers(handlers leaderboardhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, ledgerevents.UpdatedV1, handlers.HandleLedgerUpdated)
	registerHandler(deps, leaderboardevents.RequestedV1, handlers.HandleLeaderboardRequested)
}

// Close stops the router.
func (r *LeaderboardRouter) Close() error {
	return r.Router.Close()
}
