package sessiondb

import (
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is a scribe-submitted session awaiting, or past, governance.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID           uuid.UUID                  `bun:"id,pk,type:uuid"`
	SessionDate  string                     `bun:"session_date,notnull,type:varchar(10)"`
	ScribeID     string                     `bun:"scribe_id,notnull"`
	Participants []string                   `bun:"participants,type:jsonb,notnull"`
	Games        []sessiondomain.GameResult `bun:"games,type:jsonb,notnull"`
	Satisfaction int                        `bun:"satisfaction,notnull"`
	Status       string                     `bun:"status,notnull,default:'pending'"`
	ContestedBy  string                     `bun:"contested_by,notnull,default:''"`
	Revision     int                        `bun:"revision,notnull,default:1"`
	CreatedAt    time.Time                  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time                  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	FinalizedAt  *time.Time                 `bun:"finalized_at"`

	Votes []Vote `bun:"rel:has-many,join:id=session_id"`
}

// Vote is a voter's latest ballot on a session. Position keeps the order in
// which voters first voted.
type Vote struct {
	bun.BaseModel `bun:"table:session_votes,alias:sv"`

	SessionID uuid.UUID `bun:"session_id,pk,type:uuid"`
	VoterID   string    `bun:"voter_id,pk"`
	Position  int       `bun:"position,notnull"`
	Tier      string    `bun:"tier,notnull"`
	Choice    string    `bun:"choice,notnull"`
	CastAt    time.Time `bun:"cast_at,notnull"`
}

// State restores the governance state machine from the row.
func (s *Session) State() (sessiondomain.State, error) {
	votes := make([]sessiondomain.Vote, len(s.Votes))
	for i, v := range s.Votes {
		votes[i] = v.Domain()
	}
	return sessiondomain.Restore(sessiondomain.Status(s.Status), sessiondomain.PlayerID(s.ContestedBy), votes)
}

// SetState copies a governance state onto the row and its votes.
func (s *Session) SetState(st sessiondomain.State) {
	s.Status = string(st.Status())
	s.ContestedBy = string(sessiondomain.ContestedBy(st))
	ballots := st.Votes()
	s.Votes = make([]Vote, len(ballots))
	for i, v := range ballots {
		s.Votes[i] = VoteFromDomain(s.ID, i, v)
	}
}

// PlayerIDs returns the participants as domain ids.
func (s *Session) PlayerIDs() []sessiondomain.PlayerID {
	out := make([]sessiondomain.PlayerID, len(s.Participants))
	for i, p := range s.Participants {
		out[i] = sessiondomain.PlayerID(p)
	}
	return out
}

func (v Vote) Domain() sessiondomain.Vote {
	return sessiondomain.Vote{
		VoterID: sessiondomain.PlayerID(v.VoterID),
		Tier:    sessiondomain.Tier(v.Tier),
		Choice:  sessiondomain.Choice(v.Choice),
		CastAt:  v.CastAt,
	}
}

func VoteFromDomain(sessionID uuid.UUID, position int, v sessiondomain.Vote) Vote {
	return Vote{
		SessionID: sessionID,
		VoterID:   string(v.VoterID),
		Position:  position,
		Tier:      string(v.Tier),
		Choice:    string(v.Choice),
		CastAt:    v.CastAt,
	}
}
