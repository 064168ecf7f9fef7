package ledger

import (
	"context"
	"fmt"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/handlers"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module owns the ledger: the writer lock every mutation goes through, the
// player registry and the Applier used by finalize and quick sessions.
type Module struct {
	Writer        *ledgerservice.Writer
	Repository    ledgerdb.Repository
	LedgerService *ledgerservice.LedgerService
	handlers      *ledgerhandlers.LedgerHandlers
	observability *observability.Observability
}

// NewLedgerModule creates the ledger module over db.
func NewLedgerModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Provider.Logger
	logger.InfoContext(ctx, "ledger.NewLedgerModule called")

	if db == nil {
		return nil, fmt.Errorf("ledger module requires a database")
	}

	repo := ledgerdb.NewRepository(db)
	writer := ledgerservice.NewWriter(db)
	service := ledgerservice.NewLedgerService(
		repo,
		writer,
		sessiondomain.RatingMode(cfg.Governance.RatingMode),
		logger,
		obs.Registry.Metrics,
		obs.Registry.Tracer,
	)

	return &Module{
		Writer:        writer,
		Repository:    repo,
		LedgerService: service,
		handlers:      ledgerhandlers.NewLedgerHandlers(service, logger),
		observability: obs,
	}, nil
}

// RegisterRoutes mounts the player registry.
func (m *Module) RegisterRoutes(r chi.Router) {
	m.handlers.RegisterRoutes(r)
}

// Close is a no-op; the database handle belongs to the app.
func (m *Module) Close() error {
	m.observability.Provider.Logger.Info("Ledger module stopped")
	return nil
}
