package sessionservice

import (
	"time"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/google/uuid"
)

// SubmitRequest creates a pending session. When Participants is empty the
// players checked in for Date are used.
type SubmitRequest struct {
	ScribeID     sessiondomain.PlayerID
	Date         time.Time
	Participants []sessiondomain.PlayerID
	Games        []sessiondomain.GameInput
	Satisfaction int
}

// VoteRequest casts or replaces a voter's ballot.
type VoteRequest struct {
	SessionID uuid.UUID
	VoterID   sessiondomain.PlayerID
	Tier      sessiondomain.Tier
	Choice    sessiondomain.Choice
}

// ResubmitRequest replaces a contested session's payload.
type ResubmitRequest struct {
	SessionID    uuid.UUID
	ScribeID     sessiondomain.PlayerID
	Games        []sessiondomain.GameInput
	Satisfaction int
}

// QuickRequest records games straight to the ledger without governance.
type QuickRequest struct {
	Date         time.Time
	Participants []sessiondomain.PlayerID
	Games        []sessiondomain.GameInput
}

// VoteView is a ballot as shown in the audit trail.
type VoteView struct {
	VoterID sessiondomain.PlayerID `json:"voter_id"`
	Tier    sessiondomain.Tier     `json:"tier"`
	Choice  sessiondomain.Choice   `json:"choice"`
	Binding bool                   `json:"binding"`
	CastAt  time.Time              `json:"cast_at"`
}

// SessionView is the read model of a session.
type SessionView struct {
	ID           uuid.UUID                  `json:"id"`
	Date         string                     `json:"date"`
	ScribeID     sessiondomain.PlayerID     `json:"scribe_id"`
	Participants []sessiondomain.PlayerID   `json:"participants"`
	Games        []sessiondomain.GameResult `json:"games"`
	Satisfaction int                        `json:"satisfaction"`
	Status       sessiondomain.Status       `json:"status"`
	ContestedBy  sessiondomain.PlayerID     `json:"contested_by,omitempty"`
	Revision     int                        `json:"revision"`
	Votes        []VoteView                 `json:"votes"`
	CreatedAt    time.Time                  `json:"created_at"`
	FinalizedAt  *time.Time                 `json:"finalized_at,omitempty"`
}

// VoteOutcome reports the session state after a vote. Applied is set only
// when this vote finalized the session.
type VoteOutcome struct {
	SessionID   uuid.UUID              `json:"session_id"`
	Status      sessiondomain.Status   `json:"status"`
	Binding     bool                   `json:"binding"`
	Finalized   bool                   `json:"finalized"`
	Vetoed      bool                   `json:"vetoed"`
	ContestedBy sessiondomain.PlayerID `json:"contested_by,omitempty"`
	Session     *SessionView           `json:"session"`
	Applied     *ledgerservice.Applied `json:"-"`
}

// QuickResult is what the lightweight path wrote.
type QuickResult struct {
	Date         string                     `json:"date"`
	Participants []sessiondomain.PlayerID   `json:"participants"`
	Games        []sessiondomain.GameResult `json:"games"`
	Awards       []sessiondomain.GameAward  `json:"awards"`
}

// PointsAwarded sums every player's award.
func (q *QuickResult) PointsAwarded() float64 {
	var sum float64
	for _, a := range q.Awards {
		sum += a.TotalAwarded()
	}
	return sum
}

func newSessionView(s *sessiondb.Session) *SessionView {
	view := &SessionView{
		ID:           s.ID,
		Date:         s.SessionDate,
		ScribeID:     sessiondomain.PlayerID(s.ScribeID),
		Participants: s.PlayerIDs(),
		Games:        s.Games,
		Satisfaction: s.Satisfaction,
		Status:       sessiondomain.Status(s.Status),
		ContestedBy:  sessiondomain.PlayerID(s.ContestedBy),
		Revision:     s.Revision,
		Votes:        make([]VoteView, 0, len(s.Votes)),
		CreatedAt:    s.CreatedAt,
		FinalizedAt:  s.FinalizedAt,
	}
	for _, v := range s.Votes {
		d := v.Domain()
		view.Votes = append(view.Votes, VoteView{
			VoterID: d.VoterID,
			Tier:    d.Tier,
			Choice:  d.Choice,
			Binding: d.Binding(),
			CastAt:  d.CastAt,
		})
	}
	return view
}
