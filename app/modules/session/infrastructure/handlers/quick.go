package sessionhandlers

import (
	"context"
	"errors"

	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
)

// HandleQuickRequested handles the QuickRequested event.
func (h *SessionHandlers) HandleQuickRequested(ctx context.Context, payload *sessionevents.QuickRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	date, err := h.dates.Parse(payload.Date, h.now())
	if err != nil {
		return h.failure(ctx, sessionevents.QuickFailedV1, nil, err)
	}

	res, err := h.service.RecordQuickSession(ctx, sessionservice.QuickRequest{
		Date:         date,
		Participants: payload.Participants,
		Games:        payload.Games,
	})
	if err != nil {
		return h.failure(ctx, sessionevents.QuickFailedV1, nil, err)
	}

	return QuickResults(res, h.now()), nil
}
