package sessiondomain

import (
	"slices"
	"strings"
)

// PlayerID is a stable member identity.
type PlayerID string

// Slot is one of the three fixed game positions in a session.
type Slot int

const (
	SlotOne   Slot = 1
	SlotTwo   Slot = 2
	SlotThree Slot = 3
)

// ScoreBased reports whether the slot is decided by raw scores.
func (s Slot) ScoreBased() bool { return s == SlotOne || s == SlotTwo }

func (s Slot) Valid() bool { return s >= SlotOne && s <= SlotThree }

// Side names one of the two teams in a game.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

func (s Side) Valid() bool { return s == SideA || s == SideB }

// Team is an ordered pair of players as recorded in a game.
type Team [2]PlayerID

// Key returns the order-independent identity of the team.
func (t Team) Key() TeamKey { return NewTeamKey(t[0], t[1]) }

func (t Team) Contains(p PlayerID) bool { return t[0] == p || t[1] == p }

// TeamKeySeparator joins the members of a TeamKey. Player ids must not
// contain it.
const TeamKeySeparator = ":"

// TeamKey is the canonical "lo:hi" identity of a pair, so {A,B} and {B,A}
// accumulate into the same entity.
type TeamKey string

func NewTeamKey(a, b PlayerID) TeamKey {
	ids := []string{string(a), string(b)}
	slices.Sort(ids)
	return TeamKey(ids[0] + TeamKeySeparator + ids[1])
}

// Members splits a key back into its sorted member ids.
func (k TeamKey) Members() Team {
	lo, hi, _ := strings.Cut(string(k), TeamKeySeparator)
	return Team{PlayerID(lo), PlayerID(hi)}
}

// GameInput is the raw outcome of one slot as entered by the scribe.
// Slots one and two carry scores; slot three carries only a winner.
type GameInput struct {
	Slot   Slot `json:"slot"`
	ScoreA *int `json:"score_a,omitempty"`
	ScoreB *int `json:"score_b,omitempty"`
	Winner Side `json:"winner,omitempty"`
}

// GameResult is a validated game with teams fixed by the pairing.
type GameResult struct {
	Slot   Slot `json:"slot"`
	TeamA  Team `json:"team_a"`
	TeamB  Team `json:"team_b"`
	ScoreA *int `json:"score_a,omitempty"`
	ScoreB *int `json:"score_b,omitempty"`
	Winner Side `json:"winner"`
}

// WinnerTeam returns the winning and losing teams.
func (g GameResult) WinnerTeam() (winner, loser Team) {
	if g.Winner == SideA {
		return g.TeamA, g.TeamB
	}
	return g.TeamB, g.TeamA
}

// Participants lists the four players in slot order.
func (g GameResult) Participants() []PlayerID {
	return []PlayerID{g.TeamA[0], g.TeamA[1], g.TeamB[0], g.TeamB[1]}
}
