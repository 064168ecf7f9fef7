package ledgerservice

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/doubles-bot/app/database/dbtest"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	ledgermigrations "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories/migrations"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func intPtr(v int) *int { return &v }

func scenarioGames(t *testing.T) []sessiondomain.GameResult {
	t.Helper()
	games, err := sessiondomain.BuildGames([]sessiondomain.PlayerID{"A", "B", "C", "D"}, []sessiondomain.GameInput{
		{Slot: sessiondomain.SlotOne, ScoreA: intPtr(9), ScoreB: intPtr(5)},
		{Slot: sessiondomain.SlotTwo, ScoreA: intPtr(7), ScoreB: intPtr(9)},
		{Slot: sessiondomain.SlotThree, Winner: sessiondomain.SideA},
	})
	require.NoError(t, err)
	return games
}

type ledgerFixture struct {
	svc    *LedgerService
	repo   ledgerdb.Repository
	writer *Writer
}

func newLedgerFixture(t *testing.T, mode sessiondomain.RatingMode) ledgerFixture {
	t.Helper()
	db := dbtest.NewSQLite(t, ledgermigrations.Migrations)
	repo := ledgerdb.NewRepository(db)
	writer := NewWriter(db)
	svc := NewLedgerService(repo, writer, mode, slog.Default(), metrics.NewNoop(), nil)

	for _, id := range []string{"A", "B", "C", "D"} {
		_, err := svc.RegisterPlayer(context.Background(), id, "Player "+id)
		require.NoError(t, err)
	}
	return ledgerFixture{svc: svc, repo: repo, writer: writer}
}

func (f ledgerFixture) apply(t *testing.T, entry Entry) *Applied {
	t.Helper()
	var applied *Applied
	err := f.writer.Do(context.Background(), func(ctx context.Context, db bun.IDB) error {
		var err error
		applied, err = f.svc.Apply(ctx, db, entry)
		return err
	})
	require.NoError(t, err)
	return applied
}

func TestApply_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t, sessiondomain.RatingModeMean)
	sessionID := uuid.New()

	applied := f.apply(t, Entry{SessionID: &sessionID, Date: "2024-01-08", Games: scenarioGames(t), Satisfaction: intPtr(8)})
	assert.Len(t, applied.Awards, 3)
	assert.Equal(t, []sessiondomain.PlayerID{"A", "B", "C", "D"}, applied.Players)
	assert.Len(t, applied.Teams, 6)

	players, err := f.repo.ListPlayers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, players, 4)

	want := map[string]struct {
		points float64
		wins   int
		diff   int
	}{
		"A": {10 + 70.0/9 + 10, 2, 2},
		"B": {25, 2, 6},
		"C": {50.0/9 + 70.0/9 + 5, 0, -6},
		"D": {50.0/9 + 20, 2, -2},
	}
	var sum float64
	for _, p := range players {
		w := want[p.ID]
		assert.InDelta(t, w.points, p.TotalPoints, 1e-9, p.ID)
		assert.Equal(t, 3, p.GamesPlayed, p.ID)
		assert.Equal(t, w.wins, p.Wins, p.ID)
		assert.Equal(t, w.diff, p.PointDiff, p.ID)
		assert.InDelta(t, 8.0, p.Rating, 1e-9, p.ID)
		sum += p.TotalPoints
	}

	var awarded float64
	for _, a := range applied.Awards {
		awarded += a.TotalAwarded()
	}
	assert.InDelta(t, awarded, sum, 1e-9)

	records, err := f.repo.ListGameRecords(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	teams, err := f.repo.ListTeams(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, teams, 6)
}

func TestApply_RatingModes(t *testing.T) {
	tests := []struct {
		name   string
		mode   sessiondomain.RatingMode
		scores []int
		want   float64
	}{
		{name: "mean", mode: sessiondomain.RatingModeMean, scores: []int{4, 10, 10}, want: 8},
		{name: "legacy", mode: sessiondomain.RatingModeLegacy, scores: []int{4, 10, 10}, want: 8.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t, tt.mode)
			for _, s := range tt.scores {
				f.apply(t, Entry{Date: "2024-01-08", Games: scenarioGames(t), Satisfaction: intPtr(s)})
			}
			p, err := f.repo.GetPlayer(context.Background(), nil, "C")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p.Rating, 1e-9)
			assert.Equal(t, len(tt.scores), p.RatedSessions)
			assert.Equal(t, 9, p.GamesPlayed)
		})
	}
}

func TestApply_QuickPathLeavesRating(t *testing.T) {
	f := newLedgerFixture(t, sessiondomain.RatingModeMean)
	f.apply(t, Entry{Date: "2024-01-08", Games: scenarioGames(t)})

	p, err := f.repo.GetPlayer(context.Background(), nil, "A")
	require.NoError(t, err)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.RatedSessions)
	assert.Equal(t, 3, p.GamesPlayed)
}

func TestApply_RejectsBeforeWriting(t *testing.T) {
	games := scenarioGames(t)
	tied := append([]sessiondomain.GameResult(nil), games...)
	tied[0].ScoreB = intPtr(9)

	tests := []struct {
		name      string
		entry     Entry
		players   []ledgerdb.Player
		wantTrace []string
	}{
		{
			name:      "unregistered participant",
			entry:     Entry{Date: "2024-01-08", Games: games},
			players:   []ledgerdb.Player{{ID: "A"}, {ID: "B"}, {ID: "C"}},
			wantTrace: []string{"GetPlayers"},
		},
		{
			name:  "tied score",
			entry: Entry{Date: "2024-01-08", Games: tied},
		},
		{
			name:  "satisfaction out of range",
			entry: Entry{Date: "2024-01-08", Games: games, Satisfaction: intPtr(11)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &ledgerdb.FakeRepository{
				GetPlayersFn: func(ctx context.Context, db bun.IDB, ids []string) ([]ledgerdb.Player, error) {
					return tt.players, nil
				},
			}
			svc := NewLedgerService(repo, NewWriter(nil), "", slog.Default(), metrics.NewNoop(), nil)

			_, err := svc.Apply(context.Background(), nil, tt.entry)
			assert.ErrorIs(t, err, sessiondomain.ErrInvalidInput)
			assert.Equal(t, tt.wantTrace, repo.Trace())
		})
	}
}

func TestReplayAndOverwrite(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t, sessiondomain.RatingModeMean)
	f.apply(t, Entry{Date: "2024-01-08", Games: scenarioGames(t), Satisfaction: intPtr(6)})
	f.apply(t, Entry{Date: "2024-01-15", Games: scenarioGames(t)})

	records, err := f.repo.ListGameRecords(ctx, nil)
	require.NoError(t, err)
	history := Replay(records)

	players, err := f.repo.ListPlayers(ctx, nil)
	require.NoError(t, err)
	for _, p := range players {
		h := history.Players[sessiondomain.PlayerID(p.ID)]
		require.NotNil(t, h)
		assert.InDelta(t, h.TotalPoints, p.TotalPoints, 1e-9)
		assert.Equal(t, h.GamesPlayed, p.GamesPlayed)
		assert.Equal(t, h.PointDiff, p.PointDiff)
	}

	// Corrupt a player, then repair from history.
	a := players[0]
	a.TotalPoints, a.Wins = 999, 40
	require.NoError(t, f.repo.UpdatePlayerTotals(ctx, nil, []ledgerdb.Player{a}))

	require.NoError(t, f.writer.Do(ctx, func(ctx context.Context, db bun.IDB) error {
		return f.svc.Overwrite(ctx, db, history)
	}))

	repaired, err := f.repo.GetPlayer(ctx, nil, "A")
	require.NoError(t, err)
	assert.InDelta(t, history.Players["A"].TotalPoints, repaired.TotalPoints, 1e-9)
	assert.Equal(t, 4, repaired.Wins)
	assert.InDelta(t, 6.0, repaired.Rating, 1e-9)

	teams, err := f.repo.ListTeams(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, teams, 6)
	for _, team := range teams {
		assert.Equal(t, 2, team.GamesPlayed, team.TeamKey)
	}
}

func TestOverwrite_UnknownPlayerInHistory(t *testing.T) {
	repo := &ledgerdb.FakeRepository{}
	svc := NewLedgerService(repo, NewWriter(nil), "", slog.Default(), metrics.NewNoop(), nil)

	history := sessiondomain.NewTally()
	history.Apply(sessiondomain.GameAward{Slot: sessiondomain.SlotThree, TeamA: sessiondomain.Team{"x", "y"}, TeamB: sessiondomain.Team{"z", "w"}, Winner: sessiondomain.SideA, PointsA: 10, PointsB: 5})

	err := svc.Overwrite(context.Background(), nil, history)
	assert.Error(t, err)
	assert.Equal(t, []string{"ListPlayers"}, repo.Trace())
}
