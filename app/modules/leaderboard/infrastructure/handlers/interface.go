package leaderboardhandlers

import (
	"context"

	leaderboardevents "github.com/Black-And-White-Club/doubles-bot/app/events/leaderboard"
	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/go-chi/chi/v5"
)

// Handlers defines the contract for leaderboard event handlers.
type Handlers interface {
	HandleLedgerUpdated(ctx context.Context, payload *ledgerevents.UpdatedPayloadV1) ([]handlerwrapper.Result, error)
	HandleLeaderboardRequested(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error)

	RegisterRoutes(r chi.Router)
}
