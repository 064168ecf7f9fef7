// Package sessionevents defines the session topics and payloads.
package sessionevents

import (
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/google/uuid"
)

const (
	SubmitRequestedV1 = "session.submit.requested.v1"
	SubmittedV1       = "session.submitted.v1"
	SubmitFailedV1    = "session.submit.failed.v1"

	VoteRequestedV1 = "session.vote.requested.v1"
	VoteRecordedV1  = "session.vote.recorded.v1"
	ContestedV1     = "session.contested.v1"
	FinalizedV1     = "session.finalized.v1"
	VoteFailedV1    = "session.vote.failed.v1"

	ResubmitRequestedV1 = "session.resubmit.requested.v1"
	ResubmittedV1       = "session.resubmitted.v1"
	ResubmitFailedV1    = "session.resubmit.failed.v1"

	QuickRequestedV1 = "session.quick.requested.v1"
	QuickRecordedV1  = "session.quick.recorded.v1"
	QuickFailedV1    = "session.quick.failed.v1"
)

// SubmitRequestedPayloadV1 asks for a new pending session. Date accepts
// YYYY-MM-DD or a natural expression such as "today" or "last monday".
type SubmitRequestedPayloadV1 struct {
	ScribeID     sessiondomain.PlayerID    `json:"scribe_id"`
	Date         string                    `json:"date,omitempty"`
	Participants []sessiondomain.PlayerID  `json:"participants,omitempty"`
	Games        []sessiondomain.GameInput `json:"games"`
	Satisfaction int                       `json:"satisfaction"`
}

type SubmittedPayloadV1 struct {
	SessionID    uuid.UUID                  `json:"session_id"`
	Date         string                     `json:"date"`
	ScribeID     sessiondomain.PlayerID     `json:"scribe_id"`
	Participants []sessiondomain.PlayerID   `json:"participants"`
	Games        []sessiondomain.GameResult `json:"games"`
	Revision     int                        `json:"revision"`
}

type VoteRequestedPayloadV1 struct {
	SessionID uuid.UUID              `json:"session_id"`
	VoterID   sessiondomain.PlayerID `json:"voter_id"`
	Tier      sessiondomain.Tier     `json:"tier"`
	Choice    sessiondomain.Choice   `json:"choice"`
}

type VoteRecordedPayloadV1 struct {
	SessionID uuid.UUID              `json:"session_id"`
	VoterID   sessiondomain.PlayerID `json:"voter_id"`
	Tier      sessiondomain.Tier     `json:"tier"`
	Choice    sessiondomain.Choice   `json:"choice"`
	Status    sessiondomain.Status   `json:"status"`
	Binding   bool                   `json:"binding"`
}

type ContestedPayloadV1 struct {
	SessionID   uuid.UUID              `json:"session_id"`
	ContestedBy sessiondomain.PlayerID `json:"contested_by"`
}

type FinalizedPayloadV1 struct {
	SessionID     uuid.UUID                `json:"session_id"`
	Date          string                   `json:"date"`
	Participants  []sessiondomain.PlayerID `json:"participants"`
	PointsAwarded float64                  `json:"points_awarded"`
	FinalizedAt   time.Time                `json:"finalized_at"`
}

type ResubmitRequestedPayloadV1 struct {
	SessionID    uuid.UUID                 `json:"session_id"`
	ScribeID     sessiondomain.PlayerID    `json:"scribe_id"`
	Games        []sessiondomain.GameInput `json:"games"`
	Satisfaction int                       `json:"satisfaction"`
}

type ResubmittedPayloadV1 struct {
	SessionID uuid.UUID                  `json:"session_id"`
	Revision  int                        `json:"revision"`
	Games     []sessiondomain.GameResult `json:"games"`
}

type QuickRequestedPayloadV1 struct {
	Date         string                    `json:"date,omitempty"`
	Participants []sessiondomain.PlayerID  `json:"participants"`
	Games        []sessiondomain.GameInput `json:"games"`
}

type QuickRecordedPayloadV1 struct {
	Date          string                   `json:"date"`
	Participants  []sessiondomain.PlayerID `json:"participants"`
	PointsAwarded float64                  `json:"points_awarded"`
}

// FailedPayloadV1 reports a request rejected by validation or governance.
type FailedPayloadV1 struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Kind      string     `json:"kind"`
	Reason    string     `json:"reason"`
}

// Failure kinds.
const (
	KindInvalidInput      = "invalid_input"
	KindIllegalTransition = "illegal_transition"
	KindNotFound          = "not_found"
)
