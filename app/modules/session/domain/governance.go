package sessiondomain

import (
	"fmt"
	"time"
)

// Status is the persisted lifecycle tag of a session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusContested Status = "contested"
	StatusFinalized Status = "finalized"
)

// Tier is a voter's governance tier.
type Tier string

const (
	TierFounder  Tier = "founder"
	TierOrdinary Tier = "ordinary"
)

// Choice is a voter's decision.
type Choice string

const (
	ChoiceConfirm  Choice = "confirm"
	ChoiceDisagree Choice = "disagree"
)

// Vote is one voter's latest decision on a session.
type Vote struct {
	VoterID PlayerID  `json:"voter_id"`
	Tier    Tier      `json:"tier"`
	Choice  Choice    `json:"choice"`
	CastAt  time.Time `json:"cast_at"`
}

// Binding reports whether the vote can move the session. Ordinary votes are
// kept for the audit trail only.
func (v Vote) Binding() bool { return v.Tier == TierFounder }

// State is a session's governance state. The concrete types are Pending,
// Contested and Finalized.
type State interface {
	Status() Status
	Votes() []Vote
	isState()
}

// Pending is awaiting votes.
type Pending struct {
	Ballots []Vote
}

// Contested was vetoed by a founder and awaits resubmission.
type Contested struct {
	By      PlayerID
	Ballots []Vote
}

// Finalized is terminal; its games have been applied to the ledger.
type Finalized struct {
	Ballots []Vote
}

func (Pending) Status() Status   { return StatusPending }
func (Contested) Status() Status { return StatusContested }
func (Finalized) Status() Status { return StatusFinalized }

func (s Pending) Votes() []Vote   { return s.Ballots }
func (s Contested) Votes() []Vote { return s.Ballots }
func (s Finalized) Votes() []Vote { return s.Ballots }

func (Pending) isState()   {}
func (Contested) isState() {}
func (Finalized) isState() {}

// Event drives a transition. The concrete types are VoteCast and Resubmitted.
type Event interface{ isEvent() }

// VoteCast upserts a vote.
type VoteCast struct {
	Vote Vote
}

// Resubmitted replaces the payload of a contested session.
type Resubmitted struct{}

func (VoteCast) isEvent()    {}
func (Resubmitted) isEvent() {}

// Outcome describes what a transition did beyond the state change.
type Outcome struct {
	// Finalize is true only on the single transition into Finalized; the
	// caller applies the ledger exactly then.
	Finalize bool
	// Binding is false for ordinary-tier votes, which never move the session.
	Binding bool
	// Vetoed is true when a founder disagreement contested the session.
	Vetoed bool
}

// Transition applies e to s. Errors leave s untouched.
//
//	Pending   --founder disagree-->          Contested
//	Pending   --every founder confirms-->    Finalized (Outcome.Finalize)
//	Pending   --other vote-->                Pending
//	Contested --vote-->                      Contested (recorded, cannot finalize)
//	Contested --resubmit-->                  Pending (votes cleared)
//	Finalized --anything-->                  IllegalTransitionError
func Transition(s State, e Event, founders Founders) (State, Outcome, error) {
	switch ev := e.(type) {
	case VoteCast:
		return castVote(s, ev.Vote, founders)
	case Resubmitted:
		if _, ok := s.(Contested); !ok {
			return s, Outcome{}, &IllegalTransitionError{From: s.Status(), Action: "resubmit"}
		}
		return Pending{}, Outcome{}, nil
	default:
		return s, Outcome{}, fmt.Errorf("sessiondomain: unknown event %T", e)
	}
}

func castVote(s State, v Vote, founders Founders) (State, Outcome, error) {
	if err := ValidateVote(v, founders); err != nil {
		return s, Outcome{}, err
	}

	out := Outcome{Binding: v.Binding()}

	switch st := s.(type) {
	case Finalized:
		return s, Outcome{}, &IllegalTransitionError{From: StatusFinalized, Action: "vote on"}

	case Contested:
		votes := upsertVote(st.Ballots, v)
		by := st.By
		if v.Binding() && v.Choice == ChoiceDisagree {
			by = v.VoterID
			out.Vetoed = true
		}
		return Contested{By: by, Ballots: votes}, out, nil

	case Pending:
		votes := upsertVote(st.Ballots, v)
		if v.Binding() && v.Choice == ChoiceDisagree {
			out.Vetoed = true
			return Contested{By: v.VoterID, Ballots: votes}, out, nil
		}
		if Unanimous(votes, founders) {
			out.Finalize = true
			return Finalized{Ballots: votes}, out, nil
		}
		return Pending{Ballots: votes}, out, nil

	default:
		return s, Outcome{}, fmt.Errorf("sessiondomain: unknown state %T", s)
	}
}

// ValidateVote checks the vote's enums and that the claimed tier matches the
// founders configuration.
func ValidateVote(v Vote, founders Founders) error {
	if v.VoterID == "" {
		return invalid("voter_id", "voter id must not be empty")
	}
	switch v.Choice {
	case ChoiceConfirm, ChoiceDisagree:
	default:
		return invalid("choice", "unknown choice %q", v.Choice)
	}
	switch v.Tier {
	case TierFounder, TierOrdinary:
	default:
		return invalid("tier", "unknown tier %q", v.Tier)
	}
	if want := founders.TierOf(v.VoterID); want != v.Tier {
		return invalid("tier", "voter %q holds tier %q, not %q", v.VoterID, want, v.Tier)
	}
	return nil
}

// upsertVote replaces the voter's earlier vote in place or appends a new one.
func upsertVote(votes []Vote, v Vote) []Vote {
	out := make([]Vote, 0, len(votes)+1)
	replaced := false
	for _, existing := range votes {
		if existing.VoterID == v.VoterID {
			out = append(out, v)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, v)
	}
	return out
}

// Unanimous reports whether every founder's latest vote is a confirm.
// Ordinary-tier votes never count toward or against it.
func Unanimous(votes []Vote, founders Founders) bool {
	if len(founders.IDs) == 0 {
		return false
	}
	latest := make(map[PlayerID]Choice, len(votes))
	for _, v := range votes {
		if v.Binding() {
			latest[v.VoterID] = v.Choice
		}
	}
	for _, id := range founders.IDs {
		if latest[id] != ChoiceConfirm {
			return false
		}
	}
	return true
}

// Restore rebuilds a State from its persisted form.
func Restore(status Status, contestedBy PlayerID, votes []Vote) (State, error) {
	switch status {
	case StatusPending:
		return Pending{Ballots: votes}, nil
	case StatusContested:
		return Contested{By: contestedBy, Ballots: votes}, nil
	case StatusFinalized:
		return Finalized{Ballots: votes}, nil
	default:
		return nil, fmt.Errorf("sessiondomain: unknown status %q", status)
	}
}

// ContestedBy returns the founder who vetoed s, if any.
func ContestedBy(s State) PlayerID {
	if c, ok := s.(Contested); ok {
		return c.By
	}
	return ""
}
