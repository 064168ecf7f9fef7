package sessionhandlers

import (
	"context"
	"errors"

	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
)

// HandleVoteRequested handles the VoteRequested event. An omitted tier is
// taken from the founder roster.
func (h *SessionHandlers) HandleVoteRequested(ctx context.Context, payload *sessionevents.VoteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	req := sessionservice.VoteRequest{
		SessionID: payload.SessionID,
		VoterID:   payload.VoterID,
		Tier:      payload.Tier,
		Choice:    payload.Choice,
	}
	if req.Tier == "" {
		req.Tier = h.service.Founders().TierOf(req.VoterID)
	}

	out, err := h.service.CastVote(ctx, req)
	if err != nil {
		return h.failure(ctx, sessionevents.VoteFailedV1, &payload.SessionID, err)
	}

	return VoteResults(req, out, h.now()), nil
}
