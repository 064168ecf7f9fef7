package leaderboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/cache"
	leaderboardhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/handlers"
	leaderboardqueue "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/queue"
	leaderboardrouter "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/router"
	"github.com/Black-And-White-Club/doubles-bot/app/modules/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the leaderboard module.
type Module struct {
	EventBus           eventbus.EventBus
	LeaderboardService leaderboardservice.Service
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	QueueService       leaderboardqueue.QueueService
	handlers           *leaderboardhandlers.LeaderboardHandlers
	cache              *leaderboardcache.RedisCache
	cancelFunc         context.CancelFunc
	observability      *observability.Observability
}

// NewLeaderboardModule creates a new instance of the leaderboard module. The
// Redis cache is used when configured; the reconcile queue runs only on
// PostgreSQL with a positive interval.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	ledgerModule *ledger.Module,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer
	metrics := obs.Registry.Metrics

	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule called")

	module := &Module{EventBus: eventBus, observability: obs}

	var cache leaderboardcache.Cache = leaderboardcache.Noop{}
	if cfg.Redis.URL != "" {
		rc, err := leaderboardcache.New(cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect leaderboard cache: %w", err)
		}
		module.cache = rc
		cache = rc
	}

	service := leaderboardservice.NewLeaderboardService(
		ledgerModule.Repository,
		ledgerModule.Writer,
		ledgerModule.LedgerService,
		cache,
		cfg.Governance.QualificationThreshold,
		logger,
		metrics,
		tracer,
	)
	module.LeaderboardService = service

	var enqueuer leaderboardhandlers.Enqueuer
	if database.IsPostgres(db) && cfg.Queue.ReconcileInterval > 0 {
		worker := leaderboardqueue.NewReconcileWorker(service, eventBus, logger)
		queue, err := leaderboardqueue.NewService(ctx, cfg.Database.DSN, cfg.Queue.ReconcileInterval, worker, logger, metrics)
		if err != nil {
			module.closeCache()
			return nil, fmt.Errorf("failed to create reconcile queue: %w", err)
		}
		module.QueueService = queue
		enqueuer = queue
	}

	module.handlers = leaderboardhandlers.NewLeaderboardHandlers(service, eventBus, enqueuer, logger, tracer)

	module.LeaderboardRouter = leaderboardrouter.NewLeaderboardRouter(logger, router, eventBus, eventBus, metrics, tracer)
	if err := module.LeaderboardRouter.Configure(ctx, module.handlers); err != nil {
		module.closeCache()
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	return module, nil
}

// RegisterRoutes mounts the leaderboard HTTP API.
func (m *Module) RegisterRoutes(r chi.Router) {
	m.handlers.RegisterRoutes(r)
}

// Run starts the reconcile queue, if any, and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.QueueService != nil {
		if err := m.QueueService.Start(ctx); err != nil {
			logger.ErrorContext(ctx, "Reconcile queue did not start", attr.Error(err))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the queue and releases the cache connection.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var firstErr error
	if m.QueueService != nil {
		if err := m.QueueService.Stop(context.Background()); err != nil {
			logger.Error("Failed to stop reconcile queue", attr.Error(err))
			firstErr = err
		}
	}
	if err := m.closeCache(); err != nil && firstErr == nil {
		firstErr = err
	}

	logger.Info("Leaderboard module stopped")
	return firstErr
}

func (m *Module) closeCache() error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Close()
}
