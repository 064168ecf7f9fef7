package sessionservice

import (
	"context"
	"fmt"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/uptrace/bun"
)

// CastVote upserts the voter's ballot and advances the governance state. The
// vote that completes founder unanimity also applies the session to the
// ledger, inside the same transaction.
func (s *SessionService) CastVote(ctx context.Context, req VoteRequest) (*VoteOutcome, error) {
	result, err := withTelemetry(s, ctx, "CastVote", req.SessionID.String(), func(ctx context.Context) (results.OperationResult[*VoteOutcome, error], error) {
		return runLocked(s, ctx, func(ctx context.Context, db bun.IDB) (*VoteOutcome, error) {
			return s.castVote(ctx, db, req)
		})
	})
	return unwrap(result, err)
}

func (s *SessionService) castVote(ctx context.Context, db bun.IDB, req VoteRequest) (*VoteOutcome, error) {
	vote := sessiondomain.Vote{
		VoterID: req.VoterID,
		Tier:    req.Tier,
		Choice:  req.Choice,
		CastAt:  s.opts.Now().UTC(),
	}
	if err := sessiondomain.ValidateVote(vote, s.opts.Founders); err != nil {
		return nil, err
	}
	if err := s.requireVoter(ctx, db, req.VoterID); err != nil {
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
	next, out, err := sessiondomain.Transition(state, sessiondomain.VoteCast{Vote: vote}, s.opts.Founders)
	if err != nil {
		return nil, err
	}
	row.SetState(next)

	var applied *ledgerservice.Applied
	if out.Finalize {
		finalizedAt := vote.CastAt
		row.FinalizedAt = &finalizedAt
		satisfaction := row.Satisfaction
		applied, err = s.ledger.Apply(ctx, db, ledgerservice.Entry{
			SessionID:    &row.ID,
			Date:         row.SessionDate,
			Games:        row.Games,
			Satisfaction: &satisfaction,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply finalized session: %w", err)
		}
	}

	if err := s.repo.UpdateSession(ctx, db, row); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if err := s.repo.ReplaceVotes(ctx, db, row.ID, row.Votes); err != nil {
		return nil, fmt.Errorf("failed to save votes: %w", err)
	}

	if out.Finalize {
		s.logger.InfoContext(ctx, "Session finalized",
			attr.ExtractCorrelationID(ctx),
			attr.String("session_id", row.ID.String()),
			attr.String("date", row.SessionDate),
		)
	} else if out.Vetoed {
		s.logger.InfoContext(ctx, "Session contested",
			attr.ExtractCorrelationID(ctx),
			attr.String("session_id", row.ID.String()),
			attr.String("contested_by", row.ContestedBy),
		)
	}

	return &VoteOutcome{
		SessionID:   row.ID,
		Status:      next.Status(),
		Binding:     out.Binding,
		Finalized:   out.Finalize,
		Vetoed:      out.Vetoed,
		ContestedBy: sessiondomain.ContestedBy(next),
		Session:     newSessionView(row),
		Applied:     applied,
	}, nil
}
