package sessionhandlers

import (
	"context"
	"slices"
	"sync"
	"time"

	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ------------------------
// Fake Session Service
// ------------------------

type FakeSessionService struct {
	trace    []string
	founders sessiondomain.Founders

	GeneratePairingsFunc   func(ctx context.Context, players []sessiondomain.PlayerID) ([3]sessiondomain.Pairing, error)
	CalculatePointsFunc    func(ctx context.Context, slot sessiondomain.Slot, own, opp *int, isWinner *bool) (float64, error)
	CurrentScribeFunc      func(ctx context.Context, date time.Time) (sessiondomain.PlayerID, error)
	SubmitSessionFunc      func(ctx context.Context, req sessionservice.SubmitRequest) (*sessionservice.SessionView, error)
	CastVoteFunc           func(ctx context.Context, req sessionservice.VoteRequest) (*sessionservice.VoteOutcome, error)
	ResubmitSessionFunc    func(ctx context.Context, req sessionservice.ResubmitRequest) (*sessionservice.SessionView, error)
	GetSessionFunc         func(ctx context.Context, id uuid.UUID) (*sessionservice.SessionView, error)
	ListSessionsFunc       func(ctx context.Context, status sessiondomain.Status) ([]sessionservice.SessionView, error)
	RecordQuickSessionFunc func(ctx context.Context, req sessionservice.QuickRequest) (*sessionservice.QuickResult, error)
	CheckInFunc            func(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error)
	CheckOutFunc           func(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error)
	ListCheckInsFunc       func(ctx context.Context, date time.Time) ([]sessiondomain.PlayerID, error)
}

func NewFakeSessionService(founders sessiondomain.Founders) *FakeSessionService {
	return &FakeSessionService{founders: founders}
}

func (f *FakeSessionService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeSessionService) Trace() []string {
	return slices.Clone(f.trace)
}

func (f *FakeSessionService) GeneratePairings(ctx context.Context, players []sessiondomain.PlayerID) ([3]sessiondomain.Pairing, error) {
	f.record("GeneratePairings")
	if f.GeneratePairingsFunc != nil {
		return f.GeneratePairingsFunc(ctx, players)
	}
	return sessiondomain.GeneratePairings(players)
}

func (f *FakeSessionService) CalculatePoints(ctx context.Context, slot sessiondomain.Slot, own, opp *int, isWinner *bool) (float64, error) {
	f.record("CalculatePoints")
	if f.CalculatePointsFunc != nil {
		return f.CalculatePointsFunc(ctx, slot, own, opp, isWinner)
	}
	return sessiondomain.CalculatePoints(slot, own, opp, isWinner)
}

func (f *FakeSessionService) CurrentScribe(ctx context.Context, date time.Time) (sessiondomain.PlayerID, error) {
	f.record("CurrentScribe")
	if f.CurrentScribeFunc != nil {
		return f.CurrentScribeFunc(ctx, date)
	}
	return sessiondomain.CurrentScribe(date, f.founders)
}

func (f *FakeSessionService) SubmitSession(ctx context.Context, req sessionservice.SubmitRequest) (*sessionservice.SessionView, error) {
	f.record("SubmitSession")
	if f.SubmitSessionFunc != nil {
		return f.SubmitSessionFunc(ctx, req)
	}
	return &sessionservice.SessionView{ID: uuid.New(), ScribeID: req.ScribeID, Status: sessiondomain.StatusPending, Revision: 1}, nil
}

func (f *FakeSessionService) CastVote(ctx context.Context, req sessionservice.VoteRequest) (*sessionservice.VoteOutcome, error) {
	f.record("CastVote")
	if f.CastVoteFunc != nil {
		return f.CastVoteFunc(ctx, req)
	}
	return &sessionservice.VoteOutcome{SessionID: req.SessionID, Status: sessiondomain.StatusPending, Binding: req.Tier == sessiondomain.TierFounder}, nil
}

func (f *FakeSessionService) ResubmitSession(ctx context.Context, req sessionservice.ResubmitRequest) (*sessionservice.SessionView, error) {
	f.record("ResubmitSession")
	if f.ResubmitSessionFunc != nil {
		return f.ResubmitSessionFunc(ctx, req)
	}
	return &sessionservice.SessionView{ID: req.SessionID, Status: sessiondomain.StatusPending, Revision: 2}, nil
}

func (f *FakeSessionService) GetSession(ctx context.Context, id uuid.UUID) (*sessionservice.SessionView, error) {
	f.record("GetSession")
	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx, id)
	}
	return &sessionservice.SessionView{ID: id, Status: sessiondomain.StatusPending}, nil
}

func (f *FakeSessionService) ListSessions(ctx context.Context, status sessiondomain.Status) ([]sessionservice.SessionView, error) {
	f.record("ListSessions")
	if f.ListSessionsFunc != nil {
		return f.ListSessionsFunc(ctx, status)
	}
	return nil, nil
}

func (f *FakeSessionService) RecordQuickSession(ctx context.Context, req sessionservice.QuickRequest) (*sessionservice.QuickResult, error) {
	f.record("RecordQuickSession")
	if f.RecordQuickSessionFunc != nil {
		return f.RecordQuickSessionFunc(ctx, req)
	}
	return &sessionservice.QuickResult{Date: req.Date.Format(time.DateOnly), Participants: req.Participants}, nil
}

func (f *FakeSessionService) CheckIn(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error) {
	f.record("CheckIn")
	if f.CheckInFunc != nil {
		return f.CheckInFunc(ctx, date, playerID)
	}
	return []sessiondomain.PlayerID{playerID}, nil
}

func (f *FakeSessionService) CheckOut(ctx context.Context, date time.Time, playerID sessiondomain.PlayerID) ([]sessiondomain.PlayerID, error) {
	f.record("CheckOut")
	if f.CheckOutFunc != nil {
		return f.CheckOutFunc(ctx, date, playerID)
	}
	return nil, nil
}

func (f *FakeSessionService) ListCheckIns(ctx context.Context, date time.Time) ([]sessiondomain.PlayerID, error) {
	f.record("ListCheckIns")
	if f.ListCheckInsFunc != nil {
		return f.ListCheckInsFunc(ctx, date)
	}
	return nil, nil
}

func (f *FakeSessionService) Founders() sessiondomain.Founders {
	return f.founders
}

var _ sessionservice.Service = (*FakeSessionService)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	topics []string

	PublishFunc func(topic string, msgs ...*message.Message) error
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
	if p.PublishFunc != nil {
		return p.PublishFunc(topic, msgs...)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.topics)
}

var _ message.Publisher = (*FakePublisher)(nil)
