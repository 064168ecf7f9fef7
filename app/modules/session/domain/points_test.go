package sessiondomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name     string
		slot     Slot
		own      *int
		opp      *int
		isWinner *bool
		want     float64
		wantErr  bool
	}{
		{name: "slot 1 perfect win", slot: SlotOne, own: intPtr(9), opp: intPtr(4), want: 10},
		{name: "slot 2 win below target still flat", slot: SlotTwo, own: intPtr(6), opp: intPtr(5), want: 10},
		{name: "slot 1 shutout loss", slot: SlotOne, own: intPtr(0), opp: intPtr(9), want: 0},
		{name: "slot 1 proportional loss", slot: SlotOne, own: intPtr(5), opp: intPtr(9), want: 50.0 / 9},
		{name: "slot 2 near miss", slot: SlotTwo, own: intPtr(8), opp: intPtr(9), want: 80.0 / 9},
		{name: "tie rejected", slot: SlotOne, own: intPtr(7), opp: intPtr(7), wantErr: true},
		{name: "negative score", slot: SlotOne, own: intPtr(-1), opp: intPtr(9), wantErr: true},
		{name: "over target", slot: SlotTwo, own: intPtr(11), opp: intPtr(9), wantErr: true},
		{name: "missing opponent", slot: SlotOne, own: intPtr(9), wantErr: true},
		{name: "slot 3 winner", slot: SlotThree, isWinner: boolPtr(true), want: 10},
		{name: "slot 3 loser", slot: SlotThree, isWinner: boolPtr(false), want: 5},
		{name: "slot 3 ignores scores", slot: SlotThree, own: intPtr(0), opp: intPtr(9), isWinner: boolPtr(true), want: 10},
		{name: "slot 3 without flag", slot: SlotThree, wantErr: true},
		{name: "unknown slot", slot: 0, own: intPtr(9), opp: intPtr(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculatePoints(tt.slot, tt.own, tt.opp, tt.isWinner)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreGame(t *testing.T) {
	tests := []struct {
		name     string
		game     GameResult
		wantA    float64
		wantB    float64
		winner   Side
		wantDiff int
		wantErr  bool
	}{
		{
			name:     "score slot credits both teams",
			game:     GameResult{Slot: SlotOne, TeamA: Team{"A", "B"}, TeamB: Team{"C", "D"}, ScoreA: intPtr(9), ScoreB: intPtr(5)},
			wantA:    10,
			wantB:    50.0 / 9,
			winner:   SideA,
			wantDiff: 4,
		},
		{
			name:     "team b wins score slot",
			game:     GameResult{Slot: SlotTwo, TeamA: Team{"A", "C"}, TeamB: Team{"B", "D"}, ScoreA: intPtr(2), ScoreB: intPtr(9)},
			wantA:    20.0 / 9,
			wantB:    10,
			winner:   SideB,
			wantDiff: 7,
		},
		{
			name:   "binary slot has no differential",
			game:   GameResult{Slot: SlotThree, TeamA: Team{"A", "D"}, TeamB: Team{"B", "C"}, Winner: SideA},
			wantA:  10,
			wantB:  5,
			winner: SideA,
		},
		{
			name:    "binary slot without winner",
			game:    GameResult{Slot: SlotThree, TeamA: Team{"A", "D"}, TeamB: Team{"B", "C"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScoreGame(tt.game)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantA, got.PointsA, 1e-9)
			assert.InDelta(t, tt.wantB, got.PointsB, 1e-9)
			assert.Equal(t, tt.winner, got.Winner)
			assert.Equal(t, tt.wantDiff, got.Differential)

			pp := got.PlayerPoints()
			assert.InDelta(t, tt.wantA, pp[tt.game.TeamA[0]], 1e-9)
			assert.InDelta(t, tt.wantA, pp[tt.game.TeamA[1]], 1e-9)
			assert.InDelta(t, tt.wantB, pp[tt.game.TeamB[1]], 1e-9)
			assert.InDelta(t, 2*tt.wantA+2*tt.wantB, got.TotalAwarded(), 1e-9)
		})
	}
}
