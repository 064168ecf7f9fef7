package sessiondomain

import (
	"maps"
	"slices"
)

// Totals is the cumulative record of one player or team.
type Totals struct {
	TotalPoints float64
	GamesPlayed int
	Wins        int
	Losses      int
	PointDiff   int
}

// AvgPoints is zero, not NaN, before the first game.
func (t Totals) AvgPoints() float64 {
	if t.GamesPlayed == 0 {
		return 0
	}
	return t.TotalPoints / float64(t.GamesPlayed)
}

// WinPct is the share of games won, in percent.
func (t Totals) WinPct() float64 {
	if t.GamesPlayed == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.GamesPlayed) * 100
}

func (t *Totals) add(points float64, won bool, diff int) {
	t.TotalPoints += points
	t.GamesPlayed++
	if won {
		t.Wins++
		t.PointDiff += diff
	} else {
		t.Losses++
		t.PointDiff -= diff
	}
}

// Tally accumulates game awards into per-player and per-team totals. The
// finalize step, the lightweight path and history recomputation all go
// through Apply so the three can never disagree on the rules.
type Tally struct {
	Players map[PlayerID]*Totals
	Teams   map[TeamKey]*Totals
}

func NewTally() *Tally {
	return &Tally{
		Players: make(map[PlayerID]*Totals),
		Teams:   make(map[TeamKey]*Totals),
	}
}

// Apply credits one game: full team award to each member, a win or loss to
// every player and both teams, and the score margin for score-based slots.
func (t *Tally) Apply(a GameAward) {
	winner := a.Winner
	sides := []struct {
		team   Team
		points float64
		won    bool
	}{
		{a.TeamA, a.PointsA, winner == SideA},
		{a.TeamB, a.PointsB, winner == SideB},
	}

	diff := 0
	if a.Slot.ScoreBased() {
		diff = a.Differential
	}

	for _, side := range sides {
		for _, p := range side.team {
			t.player(p).add(side.points, side.won, diff)
		}
		t.team(side.team.Key()).add(side.points, side.won, diff)
	}
}

// ApplyAll applies every award in order.
func (t *Tally) ApplyAll(awards []GameAward) {
	for _, a := range awards {
		t.Apply(a)
	}
}

func (t *Tally) player(id PlayerID) *Totals {
	tot, ok := t.Players[id]
	if !ok {
		tot = &Totals{}
		t.Players[id] = tot
	}
	return tot
}

func (t *Tally) team(key TeamKey) *Totals {
	tot, ok := t.Teams[key]
	if !ok {
		tot = &Totals{}
		t.Teams[key] = tot
	}
	return tot
}

// PlayerIDs returns the tallied players in sorted order.
func (t *Tally) PlayerIDs() []PlayerID {
	return slices.Sorted(maps.Keys(t.Players))
}

// TeamKeys returns the tallied teams in sorted order.
func (t *Tally) TeamKeys() []TeamKey {
	return slices.Sorted(maps.Keys(t.Teams))
}

// TotalPoints sums every player's points.
func (t *Tally) TotalPoints() float64 {
	var sum float64
	for _, id := range t.PlayerIDs() {
		sum += t.Players[id].TotalPoints
	}
	return sum
}

// Plus returns the field-wise sum, used to fold a session delta into stored totals.
func (t Totals) Plus(o Totals) Totals {
	return Totals{
		TotalPoints: t.TotalPoints + o.TotalPoints,
		GamesPlayed: t.GamesPlayed + o.GamesPlayed,
		Wins:        t.Wins + o.Wins,
		Losses:      t.Losses + o.Losses,
		PointDiff:   t.PointDiff + o.PointDiff,
	}
}
