package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessionhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/handlers"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	sessionrouter "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/router"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the session module.
type Module struct {
	EventBus       eventbus.EventBus
	SessionService sessionservice.Service
	SessionRouter  *sessionrouter.SessionRouter
	handlers       *sessionhandlers.SessionHandlers
	cancelFunc     context.CancelFunc
	observability  *observability.Observability
}

// FoundersFromConfig builds the governance roster from configuration.
func FoundersFromConfig(cfg config.GovernanceConfig) (sessiondomain.Founders, error) {
	loc, err := cfg.Location()
	if err != nil {
		return sessiondomain.Founders{}, fmt.Errorf("invalid time zone: %w", err)
	}
	ref, err := cfg.ReferenceDate(loc)
	if err != nil {
		return sessiondomain.Founders{}, err
	}
	ids := make([]sessiondomain.PlayerID, len(cfg.Founders))
	for i, f := range cfg.Founders {
		ids[i] = sessiondomain.PlayerID(f)
	}
	return sessiondomain.NewFounders(ids, ref, loc)
}

// NewSessionModule creates a new instance of the session module.
func NewSessionModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	founders sessiondomain.Founders,
	players ledgerdb.Repository,
	ledger ledgerservice.Applier,
	writer *ledgerservice.Writer,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer
	metrics := obs.Registry.Metrics

	logger.InfoContext(ctx, "session.NewSessionModule called")

	service := sessionservice.NewSessionService(
		sessiondb.NewRepository(db),
		players,
		ledger,
		writer,
		sessionservice.Options{
			Founders:             founders,
			EnforceCurrentScribe: cfg.Governance.EnforceCurrentScribe,
		},
		logger,
		metrics,
		tracer,
	)

	handlers := sessionhandlers.NewSessionHandlers(service, eventBus, logger, tracer)

	sessionRouter := sessionrouter.NewSessionRouter(logger, router, eventBus, eventBus, metrics, tracer)
	if err := sessionRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure session router: %w", err)
	}

	return &Module{
		EventBus:       eventBus,
		SessionService: service,
		SessionRouter:  sessionRouter,
		handlers:       handlers,
		observability:  obs,
	}, nil
}

// RegisterRoutes mounts the session HTTP API.
func (m *Module) RegisterRoutes(r chi.Router) {
	m.handlers.RegisterRoutes(r)
}

// Run starts the session module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting session module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Session module goroutine stopped")
}

// Close stops the session module. The shared Watermill router is closed by
// the app.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping session module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Session module stopped")
	return nil
}
