package sessionhandlers

import (
	"time"

	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
)

// SubmittedResults announces a new pending session.
func SubmittedResults(view *sessionservice.SessionView) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: sessionevents.SubmittedV1,
		Payload: sessionevents.SubmittedPayloadV1{
			SessionID:    view.ID,
			Date:         view.Date,
			ScribeID:     view.ScribeID,
			Participants: view.Participants,
			Games:        view.Games,
			Revision:     view.Revision,
		},
	}}
}

// VoteResults announces a recorded ballot plus any state change it caused.
// A finalizing vote also emits ledger.updated for cache invalidation.
func VoteResults(req sessionservice.VoteRequest, out *sessionservice.VoteOutcome, now time.Time) []handlerwrapper.Result {
	res := []handlerwrapper.Result{{
		Topic: sessionevents.VoteRecordedV1,
		Payload: sessionevents.VoteRecordedPayloadV1{
			SessionID: out.SessionID,
			VoterID:   req.VoterID,
			Tier:      req.Tier,
			Choice:    req.Choice,
			Status:    out.Status,
			Binding:   out.Binding,
		},
	}}

	if out.Vetoed {
		res = append(res, handlerwrapper.Result{
			Topic: sessionevents.ContestedV1,
			Payload: sessionevents.ContestedPayloadV1{
				SessionID:   out.SessionID,
				ContestedBy: out.ContestedBy,
			},
		})
	}

	if !out.Finalized {
		return res
	}

	finalizedAt := now
	var date string
	var participants []sessiondomain.PlayerID
	if out.Session != nil {
		date = out.Session.Date
		participants = out.Session.Participants
		if out.Session.FinalizedAt != nil {
			finalizedAt = *out.Session.FinalizedAt
		}
	}

	var awarded float64
	players := participants
	if out.Applied != nil {
		for _, a := range out.Applied.Awards {
			awarded += a.TotalAwarded()
		}
		players = out.Applied.Players
	}

	id := out.SessionID
	return append(res,
		handlerwrapper.Result{
			Topic: sessionevents.FinalizedV1,
			Payload: sessionevents.FinalizedPayloadV1{
				SessionID:     id,
				Date:          date,
				Participants:  participants,
				PointsAwarded: awarded,
				FinalizedAt:   finalizedAt,
			},
		},
		handlerwrapper.Result{
			Topic: ledgerevents.UpdatedV1,
			Payload: ledgerevents.UpdatedPayloadV1{
				Source:     ledgerevents.SourceFinalize,
				SessionID:  &id,
				Players:    players,
				OccurredAt: finalizedAt,
			},
		},
	)
}

// ResubmittedResults announces a contested session returning to pending.
func ResubmittedResults(view *sessionservice.SessionView) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: sessionevents.ResubmittedV1,
		Payload: sessionevents.ResubmittedPayloadV1{
			SessionID: view.ID,
			Revision:  view.Revision,
			Games:     view.Games,
		},
	}}
}

// QuickResults announces a lightweight recording and the ledger change.
func QuickResults(res *sessionservice.QuickResult, now time.Time) []handlerwrapper.Result {
	return []handlerwrapper.Result{
		{
			Topic: sessionevents.QuickRecordedV1,
			Payload: sessionevents.QuickRecordedPayloadV1{
				Date:          res.Date,
				Participants:  res.Participants,
				PointsAwarded: res.PointsAwarded(),
			},
		},
		{
			Topic: ledgerevents.UpdatedV1,
			Payload: ledgerevents.UpdatedPayloadV1{
				Source:     ledgerevents.SourceQuick,
				Players:    res.Participants,
				OccurredAt: now,
			},
		},
	}
}
