package sessiondomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioGames is the [A,B,C,D] session: AB beat CD 9-5, BD beat AC 9-7, AD win slot 3.
func scenarioGames(t *testing.T) []GameResult {
	t.Helper()
	games, err := BuildGames(ids("A", "B", "C", "D"), []GameInput{
		{Slot: SlotOne, ScoreA: intPtr(9), ScoreB: intPtr(5)},
		{Slot: SlotTwo, ScoreA: intPtr(7), ScoreB: intPtr(9)},
		{Slot: SlotThree, Winner: SideA},
	})
	require.NoError(t, err)
	return games
}

func TestTally_EndToEndScenario(t *testing.T) {
	awards, err := ScoreSession(scenarioGames(t))
	require.NoError(t, err)

	tally := NewTally()
	tally.ApplyAll(awards)

	game1Loss := 5.0 / 9 * 10
	game2Loss := 7.0 / 9 * 10

	want := map[PlayerID]Totals{
		"A": {TotalPoints: 10 + game2Loss + 10, GamesPlayed: 3, Wins: 2, Losses: 1, PointDiff: 4 - 2},
		"B": {TotalPoints: 10 + 10 + 5, GamesPlayed: 3, Wins: 2, Losses: 1, PointDiff: 4 + 2},
		"C": {TotalPoints: game1Loss + game2Loss + 5, GamesPlayed: 3, Wins: 0, Losses: 3, PointDiff: -4 - 2},
		"D": {TotalPoints: game1Loss + 10 + 10, GamesPlayed: 3, Wins: 2, Losses: 1, PointDiff: -4 + 2},
	}

	require.Equal(t, ids("A", "B", "C", "D"), tally.PlayerIDs())
	for id, w := range want {
		got := tally.Players[id]
		assert.InDelta(t, w.TotalPoints, got.TotalPoints, 1e-9, "points %s", id)
		assert.Equal(t, w.GamesPlayed, got.GamesPlayed, "games %s", id)
		assert.Equal(t, w.Wins, got.Wins, "wins %s", id)
		assert.Equal(t, w.Losses, got.Losses, "losses %s", id)
		assert.Equal(t, w.PointDiff, got.PointDiff, "diff %s", id)
	}

	assert.InDelta(t, 27.777777, tally.Players["A"].TotalPoints, 1e-5)
	assert.InDelta(t, 18.333333, tally.Players["C"].TotalPoints, 1e-5)

	var awarded float64
	for _, a := range awards {
		awarded += a.TotalAwarded()
	}
	assert.InDelta(t, awarded, tally.TotalPoints(), 1e-9)
}

func TestTally_TeamsCanonicalized(t *testing.T) {
	tally := NewTally()
	tally.Apply(GameAward{Slot: SlotThree, TeamA: Team{"A", "B"}, TeamB: Team{"C", "D"}, Winner: SideA, PointsA: 10, PointsB: 5})
	tally.Apply(GameAward{Slot: SlotThree, TeamA: Team{"D", "C"}, TeamB: Team{"B", "A"}, Winner: SideA, PointsA: 10, PointsB: 5})

	require.Len(t, tally.Teams, 2)
	ab := tally.Teams[NewTeamKey("A", "B")]
	cd := tally.Teams[NewTeamKey("C", "D")]
	assert.Equal(t, 2, ab.GamesPlayed)
	assert.Equal(t, 2, cd.GamesPlayed)
	assert.InDelta(t, 15.0, ab.TotalPoints, 1e-9)
	assert.Equal(t, 1, ab.Wins)
	assert.Equal(t, 0, ab.PointDiff)
}

func TestTotals_Averages(t *testing.T) {
	var empty Totals
	assert.Zero(t, empty.AvgPoints())
	assert.Zero(t, empty.WinPct())

	tot := Totals{TotalPoints: 25, GamesPlayed: 4, Wins: 1}
	assert.InDelta(t, 6.25, tot.AvgPoints(), 1e-9)
	assert.InDelta(t, 25.0, tot.WinPct(), 1e-9)
}

func TestUpdateRating(t *testing.T) {
	tests := []struct {
		name         string
		mode         RatingMode
		scores       []int
		want         float64
		wantSessions int
	}{
		{name: "mean first session", mode: RatingModeMean, scores: []int{8}, want: 8, wantSessions: 1},
		{name: "mean is order independent", mode: RatingModeMean, scores: []int{10, 4, 7}, want: 7, wantSessions: 3},
		{name: "legacy first session", mode: RatingModeLegacy, scores: []int{8}, want: 8, wantSessions: 1},
		{name: "legacy halves toward latest", mode: RatingModeLegacy, scores: []int{10, 4, 7}, want: 7, wantSessions: 3},
		{name: "legacy recency bias", mode: RatingModeLegacy, scores: []int{4, 10, 10}, want: 8.5, wantSessions: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rating float64
			var n int
			for _, s := range tt.scores {
				rating, n = UpdateRating(tt.mode, rating, n, s)
			}
			assert.InDelta(t, tt.want, rating, 1e-9)
			assert.Equal(t, tt.wantSessions, n)
		})
	}
}

func TestValidateSatisfaction(t *testing.T) {
	assert.NoError(t, ValidateSatisfaction(1))
	assert.NoError(t, ValidateSatisfaction(10))
	assert.ErrorIs(t, ValidateSatisfaction(0), ErrInvalidInput)
	assert.ErrorIs(t, ValidateSatisfaction(11), ErrInvalidInput)
}

func TestTotals_Plus(t *testing.T) {
	a := Totals{TotalPoints: 12.5, GamesPlayed: 3, Wins: 2, Losses: 1, PointDiff: 4}
	b := Totals{TotalPoints: 5, GamesPlayed: 1, Losses: 1, PointDiff: -3}
	assert.Equal(t, Totals{TotalPoints: 17.5, GamesPlayed: 4, Wins: 2, Losses: 2, PointDiff: 1}, a.Plus(b))
}
