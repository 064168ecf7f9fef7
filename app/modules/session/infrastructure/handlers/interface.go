package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/go-chi/chi/v5"
)

// Handlers defines the contract for session event handlers.
type Handlers interface {
	HandleSubmitRequested(ctx context.Context, payload *sessionevents.SubmitRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleVoteRequested(ctx context.Context, payload *sessionevents.VoteRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleResubmitRequested(ctx context.Context, payload *sessionevents.ResubmitRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleQuickRequested(ctx context.Context, payload *sessionevents.QuickRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// RegisterRoutes mounts the HTTP API on an authenticated router.
	RegisterRoutes(r chi.Router)
}
