package auth

import (
	"context"
	"log/slog"
	"net/http"

	authservice "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/application"
	authhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/jwt"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Module represents the auth module.
type Module struct {
	config   *config.Config
	service  authservice.Service
	handlers *authhandlers.AuthHandlers
	limiter  *authhandlers.IPRateLimiter
	logger   *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	players ledgerdb.Repository,
	founders sessiondomain.Founders,
) *Module {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "Initializing auth module")

	jwtProvider := authjwt.NewProvider(cfg.JWT.Secret)
	service := authservice.NewService(
		jwtProvider,
		players,
		authservice.Config{DefaultTTL: cfg.JWT.DefaultTTL, Founders: founders},
		logger,
		tracer,
	)

	return &Module{
		config:   cfg,
		service:  service,
		handlers: authhandlers.NewAuthHandlers(service, logger, tracer),
		limiter:  authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.Burst),
		logger:   logger,
	}
}

// Middleware is the stack every /api route runs behind: CORS, the per-IP
// limiter, then bearer authentication.
func (m *Module) Middleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins),
		authhandlers.RateLimitMiddleware(m.limiter),
		authhandlers.BearerMiddleware(m.service, m.logger),
	}
}

// RegisterRoutes mounts the token endpoints on an authenticated router.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", m.handlers.HandleHTTPMe)
		r.With(authhandlers.RequireFounder).Post("/tokens", m.handlers.HandleHTTPIssueToken)
	})
}

// GetService returns the auth service for use by the CLI.
func (m *Module) GetService() authservice.Service {
	return m.service
}
