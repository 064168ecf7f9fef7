package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
)

// SubmitSession records a scribe's session as pending. Every check runs
// before the insert, so a rejected submission leaves nothing behind.
func (s *SessionService) SubmitSession(ctx context.Context, req SubmitRequest) (*SessionView, error) {
	result, err := withTelemetry(s, ctx, "SubmitSession", string(req.ScribeID), func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) (*SessionView, error) {
			return s.submit(ctx, db, req)
		})
	})
	return unwrap(result, err)
}

func (s *SessionService) submit(ctx context.Context, db bun.IDB, req SubmitRequest) (*SessionView, error) {
	date := req.Date
	if date.IsZero() {
		date = s.opts.Now()
	}
	if err := s.checkScribe(req.ScribeID, date); err != nil {
		return nil, err
	}
	if err := sessiondomain.ValidateSatisfaction(req.Satisfaction); err != nil {
		return nil, err
	}

	day := s.dateKey(date)
	participants := req.Participants
	if len(participants) == 0 {
		checkedIn, err := s.checkedIn(ctx, db, day)
		if err != nil {
			return nil, err
		}
		if len(checkedIn) != sessiondomain.PlayersPerSession {
			return nil, sessiondomain.NewInvalidInput("participants", "%d players checked in for %s, need %d", len(checkedIn), day, sessiondomain.PlayersPerSession)
		}
		participants = checkedIn
	}

	games, err := sessiondomain.BuildGames(participants, req.Games)
	if err != nil {
		return nil, err
	}
	if _, err := sessiondomain.ScoreSession(games); err != nil {
		return nil, err
	}
	if err := s.requireRegistered(ctx, db, participants); err != nil {
		return nil, err
	}

	row := &sessiondb.Session{
		SessionDate:  day,
		ScribeID:     string(req.ScribeID),
		Participants: playerStrings(participants),
		Games:        games,
		Satisfaction: req.Satisfaction,
		Revision:     1,
	}
	row.SetState(sessiondomain.Pending{})
	if err := s.repo.CreateSession(ctx, db, row); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return newSessionView(row), nil
}

// ResubmitSession replaces a contested session's games and satisfaction,
// clears its votes and returns it to pending.
func (s *SessionService) ResubmitSession(ctx context.Context, req ResubmitRequest) (*SessionView, error) {
	result, err := withTelemetry(s, ctx, "ResubmitSession", req.SessionID.String(), func(ctx context.Context) (results.OperationResult[*SessionView, error], error) {
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) (*SessionView, error) {
			return s.resubmit(ctx, db, req)
		})
	})
	return unwrap(result, err)
}

func (s *SessionService) resubmit(ctx context.Context, db bun.IDB, req ResubmitRequest) (*SessionView, error) {
	if !s.opts.Founders.IsFounder(req.ScribeID) {
		return nil, sessiondomain.NewInvalidInput("scribe_id", "%q is not a founder", req.ScribeID)
	}
	if err := sessiondomain.ValidateSatisfaction(req.Satisfaction); err != nil {
		return nil, err
	}

	row, err := s.repo.GetSessionForUpdate(ctx, db, req.SessionID)
	if err != nil {
		return nil, err
	}
	state, err := row.State()
	if err != nil {
		return nil, err
	}
	next, _, err := sessiondomain.Transition(state, sessiondomain.Resubmitted{}, s.opts.Founders)
	if err != nil {
		return nil, err
	}

	games, err := sessiondomain.BuildGames(row.PlayerIDs(), req.Games)
	if err != nil {
		return nil, err
	}
	if _, err := sessiondomain.ScoreSession(games); err != nil {
		return nil, err
	}

	row.Games = games
	row.Satisfaction = req.Satisfaction
	row.Revision++
	row.SetState(next)
	if err := s.repo.UpdateSession(ctx, db, row); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if err := s.repo.ReplaceVotes(ctx, db, row.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear votes: %w", err)
	}
	return newSessionView(row), nil
}

// checkScribe enforces that sessions are authored by a founder and, when
// configured, by the founder on duty that week.
func (s *SessionService) checkScribe(scribe sessiondomain.PlayerID, date time.Time) error {
	if !s.opts.Founders.IsFounder(scribe) {
		return sessiondomain.NewInvalidInput("scribe_id", "%q is not a founder", scribe)
	}
	if !s.opts.EnforceCurrentScribe {
		return nil
	}
	onDuty, err := sessiondomain.CurrentScribe(date, s.opts.Founders)
	if err != nil {
		return err
	}
	if onDuty != scribe {
		return sessiondomain.NewInvalidInput("scribe_id", "%q is not the scribe for %s, %q is", scribe, s.dateKey(date), onDuty)
	}
	return nil
}

// requireRegistered fails unless every id is a registered player.
func (s *SessionService) requireRegistered(ctx context.Context, db bun.IDB, ids []sessiondomain.PlayerID) error {
	players, err := s.players.GetPlayers(ctx, db, playerStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}
	found := make(map[string]bool, len(players))
	for _, p := range players {
		found[p.ID] = true
	}
	for _, id := range ids {
		if !found[string(id)] {
			return sessiondomain.NewInvalidInput("participants", "player %q is not registered", id)
		}
	}
	return nil
}

// requireVoter accepts founders and registered players.
func (s *SessionService) requireVoter(ctx context.Context, db bun.IDB, id sessiondomain.PlayerID) error {
	if s.opts.Founders.IsFounder(id) {
		return nil
	}
	if _, err := s.players.GetPlayer(ctx, db, string(id)); err != nil {
		if errors.Is(err, ledgerdb.ErrNotFound) {
			return sessiondomain.NewInvalidInput("voter_id", "%q is not a registered player", id)
		}
		return fmt.Errorf("failed to load voter: %w", err)
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
