package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	"github.com/Black-And-White-Club/doubles-bot/app/modules/auth"
	"github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard"
	"github.com/Black-And-White-Club/doubles-bot/app/modules/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/modules/session"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

const shutdownTimeout = 10 * time.Second

// Modules groups the engine's modules.
type Modules struct {
	Auth        *auth.Module
	Ledger      *ledger.Module
	Session     *session.Module
	Leaderboard *leaderboard.Module
}

// App owns every long-lived resource of the process.
type App struct {
	Config          *config.Config
	Observability   *observability.Observability
	DB              *bun.DB
	EventBus        eventbus.EventBus
	WatermillRouter *message.Router
	Modules         Modules

	server *http.Server
	wg     sync.WaitGroup
}

// New wires the application. The database schema must already be migrated;
// see Migrate.
func New(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Provider.Logger

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Observability: obs, DB: db}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config
	logger := a.Observability.Provider.Logger

	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewNATSEventBus(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect event bus: %w", err)
		}
		a.EventBus = bus
	} else {
		logger.InfoContext(ctx, "No NATS URL configured, using in-process event bus")
		a.EventBus = eventbus.NewInMemoryEventBus(logger)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	a.WatermillRouter = router

	founders, err := session.FoundersFromConfig(cfg.Governance)
	if err != nil {
		return err
	}

	ledgerModule, err := ledger.NewLedgerModule(ctx, cfg, a.Observability, a.DB)
	if err != nil {
		return err
	}
	a.Modules.Ledger = ledgerModule

	a.Modules.Auth = auth.NewModule(ctx, cfg, a.Observability, ledgerModule.Repository, founders)

	sessionModule, err := session.NewSessionModule(
		ctx, cfg, a.Observability, a.DB, founders,
		ledgerModule.Repository, ledgerModule.LedgerService, ledgerModule.Writer,
		a.EventBus, router,
	)
	if err != nil {
		return err
	}
	a.Modules.Session = sessionModule

	leaderboardModule, err := leaderboard.NewLeaderboardModule(ctx, cfg, a.Observability, a.DB, ledgerModule, a.EventBus, router)
	if err != nil {
		return err
	}
	a.Modules.Leaderboard = leaderboardModule

	a.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Handler builds the HTTP surface: unauthenticated health and metrics, and
// the module APIs under /api behind the auth middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	if a.Config.Observability.MetricsAddress == "" {
		r.Handle("/metrics", a.metricsHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(a.Modules.Auth.Middleware()...)
		a.Modules.Auth.RegisterRoutes(r)
		a.Modules.Ledger.RegisterRoutes(r)
		a.Modules.Session.RegisterRoutes(r)
		a.Modules.Leaderboard.RegisterRoutes(r)
	})
	return r
}

func (a *App) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Observability.Registry.Prometheus, promhttp.HandlerOpts{})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run starts the modules, the Watermill router and the HTTP servers, and
// blocks until ctx is done or a server fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Provider.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.wg.Add(2)
	go a.Modules.Session.Run(ctx, &a.wg)
	go a.Modules.Leaderboard.Run(ctx, &a.wg)

	errCh := make(chan error, 3)
	go func() {
		if err := a.WatermillRouter.Run(ctx); err != nil {
			errCh <- fmt.Errorf("watermill router: %w", err)
		}
	}()

	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
		}
	}()

	var metricsServer *http.Server
	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		metricsServer = &http.Server{Addr: addr, Handler: a.metricsHandler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.InfoContext(ctx, "Metrics server listening", attr.String("address", addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve metrics: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.ErrorContext(ctx, "Application stopped on error", attr.Error(runErr))
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	a.wg.Wait()
	return runErr
}

// Close releases modules, the router, the bus and the database, in that
// order. It is safe to call on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.Modules.Leaderboard != nil {
		errs = append(errs, a.Modules.Leaderboard.Close())
	}
	if a.Modules.Session != nil {
		errs = append(errs, a.Modules.Session.Close())
	}
	if a.Modules.Ledger != nil {
		errs = append(errs, a.Modules.Ledger.Close())
	}
	if a.WatermillRouter != nil {
		errs = append(errs, a.WatermillRouter.Close())
	}
	if a.EventBus != nil {
		errs = append(errs, a.EventBus.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
