package sessionhandlers

import (
	"context"
	"errors"

	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
)

// HandleSubmitRequested handles the SubmitRequested event.
func (h *SessionHandlers) HandleSubmitRequested(ctx context.Context, payload *sessionevents.SubmitRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	date, err := h.dates.Parse(payload.Date, h.now())
	if err != nil {
		return h.failure(ctx, sessionevents.SubmitFailedV1, nil, err)
	}

	view, err := h.service.SubmitSession(ctx, sessionservice.SubmitRequest{
		ScribeID:     payload.ScribeID,
		Date:         date,
		Participants: payload.Participants,
		Games:        payload.Games,
		Satisfaction: payload.Satisfaction,
	})
	if err != nil {
		return h.failure(ctx, sessionevents.SubmitFailedV1, nil, err)
	}

	return SubmittedResults(view), nil
}

// HandleResubmitRequested handles the ResubmitRequested event.
func (h *SessionHandlers) HandleResubmitRequested(ctx context.Context, payload *sessionevents.ResubmitRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	view, err := h.service.ResubmitSession(ctx, sessionservice.ResubmitRequest{
		SessionID:    payload.SessionID,
		ScribeID:     payload.ScribeID,
		Games:        payload.Games,
		Satisfaction: payload.Satisfaction,
	})
	if err != nil {
		return h.failure(ctx, sessionevents.ResubmitFailedV1, &payload.SessionID, err)
	}

	return ResubmittedResults(view), nil
}
