package ledgerservice

import (
	"context"
	"fmt"
	"slices"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is one batch of accepted games headed for the ledger.
type Entry struct {
	SessionID    *uuid.UUID
	Date         string
	Games        []sessiondomain.GameResult
	Satisfaction *int
}

// Applied summarizes what an entry changed.
type Applied struct {
	Awards  []sessiondomain.GameAward
	Players []sessiondomain.PlayerID
	Teams   []sessiondomain.TeamKey
}

// Applier credits accepted games to the ledger. Callers hold the Writer and
// pass its transaction handle.
type Applier interface {
	Apply(ctx context.Context, db bun.IDB, entry Entry) (*Applied, error)
}

// Apply scores the entry's games, folds the resulting delta into player and
// team totals, updates participant ratings when a satisfaction score is
// present, and appends the game records. Nothing is written if any game or
// participant is invalid.
func (s *LedgerService) Apply(ctx context.Context, db bun.IDB, entry Entry) (*Applied, error) {
	awards, err := sessiondomain.ScoreSession(entry.Games)
	if err != nil {
		return nil, err
	}
	if entry.Satisfaction != nil {
		if err := sessiondomain.ValidateSatisfaction(*entry.Satisfaction); err != nil {
			return nil, err
		}
	}

	delta := sessiondomain.NewTally()
	delta.ApplyAll(awards)
	playerIDs := delta.PlayerIDs()

	players, err := s.repo.GetPlayers(ctx, db, playerStrings(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if err := requireAll(playerIDs, players); err != nil {
		return nil, err
	}

	for i := range players {
		p := &players[i]
		p.SetTotals(p.Totals().Plus(*delta.Players[sessiondomain.PlayerID(p.ID)]))
		if entry.Satisfaction != nil {
			p.Rating, p.RatedSessions = sessiondomain.UpdateRating(s.ratingMode, p.Rating, p.RatedSessions, *entry.Satisfaction)
		}
	}
	if err := s.repo.UpdatePlayerTotals(ctx, db, players); err != nil {
		return nil, fmt.Errorf("failed to update players: %w", err)
	}

	teamKeys := delta.TeamKeys()
	existing, err := s.repo.GetTeams(ctx, db, teamStrings(teamKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	byKey := make(map[string]ledgerdb.Team, len(existing))
	for _, t := range existing {
		byKey[t.TeamKey] = t
	}
	teams := make([]ledgerdb.Team, 0, len(teamKeys))
	for _, key := range teamKeys {
		t, ok := byKey[string(key)]
		if !ok {
			t = ledgerdb.NewTeam(key)
		}
		t.SetTotals(t.Totals().Plus(*delta.Teams[key]))
		teams = append(teams, t)
	}
	if err := s.repo.UpsertTeams(ctx, db, teams); err != nil {
		return nil, fmt.Errorf("failed to update teams: %w", err)
	}

	records := make([]ledgerdb.GameRecord, len(entry.Games))
	for i, g := range entry.Games {
		records[i] = ledgerdb.NewGameRecord(entry.SessionID, entry.Date, g, awards[i])
	}
	if err := s.repo.InsertGameRecords(ctx, db, records); err != nil {
		return nil, fmt.Errorf("failed to append game records: %w", err)
	}

	s.logger.InfoContext(ctx, "Ledger entry applied",
		attr.ExtractCorrelationID(ctx),
		attr.String("date", entry.Date),
		attr.Int("games", len(records)),
		attr.Float64("points_awarded", delta.TotalPoints()),
	)

	return &Applied{Awards: awards, Players: playerIDs, Teams: teamKeys}, nil
}

// Replay recomputes totals from game history. The result is what the ledger
// would hold if every record were applied to an empty ledger.
func Replay(records []ledgerdb.GameRecord) *sessiondomain.Tally {
	tally := sessiondomain.NewTally()
	for i := range records {
		tally.Apply(records[i].Award())
	}
	return tally
}

// Overwrite replaces every player's and team's totals with history. Ratings
// are kept because satisfaction scores are not part of game history.
func (s *LedgerService) Overwrite(ctx context.Context, db bun.IDB, history *sessiondomain.Tally) error {
	players, err := s.repo.ListPlayers(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	known := make(map[sessiondomain.PlayerID]bool, len(players))
	for i := range players {
		p := &players[i]
		id := sessiondomain.PlayerID(p.ID)
		known[id] = true
		var tot sessiondomain.Totals
		if h, ok := history.Players[id]; ok {
			tot = *h
		}
		p.SetTotals(tot)
	}
	for _, id := range history.PlayerIDs() {
		if !known[id] {
			return fmt.Errorf("game history references unregistered player %q", id)
		}
	}

	if err := s.repo.UpdatePlayerTotals(ctx, db, players); err != nil {
		return fmt.Errorf("failed to update players: %w", err)
	}
	if err := s.repo.DeleteAllTeams(ctx, db); err != nil {
		return fmt.Errorf("failed to clear teams: %w", err)
	}

	teams := make([]ledgerdb.Team, 0, len(history.Teams))
	for _, key := range history.TeamKeys() {
		t := ledgerdb.NewTeam(key)
		t.SetTotals(*history.Teams[key])
		teams = append(teams, t)
	}
	if err := s.repo.UpsertTeams(ctx, db, teams); err != nil {
		return fmt.Errorf("failed to write teams: %w", err)
	}
	return nil
}

func requireAll(want []sessiondomain.PlayerID, got []ledgerdb.Player) error {
	for _, id := range want {
		if !slices.ContainsFunc(got, func(p ledgerdb.Player) bool { return p.ID == string(id) }) {
			return sessiondomain.NewInvalidInput("participants", "player %q is not registered", id)
		}
	}
	return nil
}

func playerStrings(ids []sessiondomain.PlayerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func teamStrings(keys []sessiondomain.TeamKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
