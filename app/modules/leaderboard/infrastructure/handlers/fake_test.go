package leaderboardhandlers

import (
	"context"
	"slices"
	"sync"

	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	"github.com/ThreeDotsLabs/watermill/message"
)

type FakeLeaderboardService struct {
	trace []string

	GetLeaderboardFunc     func(ctx context.Context, q leaderboardservice.Query) (*leaderboarddomain.Leaderboard, error)
	ReconcileFunc          func(ctx context.Context) (*leaderboardservice.ReconcileReport, error)
	RebuildFunc            func(ctx context.Context) (*leaderboardservice.RebuildReport, error)
	InvalidateCacheFunc    func(ctx context.Context) error
	ExportStandingsFunc    func(ctx context.Context, q leaderboardservice.Query) ([]byte, error)
	PointsHistoryChartFunc func(ctx context.Context, playerID string) ([]byte, error)
}

func (f *FakeLeaderboardService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeLeaderboardService) Trace() []string { return slices.Clone(f.trace) }

func (f *FakeLeaderboardService) GetLeaderboard(ctx context.Context, q leaderboardservice.Query) (*leaderboarddomain.Leaderboard, error) {
	f.record("GetLeaderboard")
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx, q)
	}
	return &leaderboarddomain.Leaderboard{Mode: leaderboarddomain.ModeSingles, View: leaderboarddomain.ViewPoints, Threshold: 18, Entries: []leaderboarddomain.Entry{}}, nil
}

func (f *FakeLeaderboardService) Reconcile(ctx context.Context) (*leaderboardservice.ReconcileReport, error) {
	f.record("Reconcile")
	if f.ReconcileFunc != nil {
		return f.ReconcileFunc(ctx)
	}
	return &leaderboardservice.ReconcileReport{}, nil
}

func (f *FakeLeaderboardService) Rebuild(ctx context.Context) (*leaderboardservice.RebuildReport, error) {
	f.record("Rebuild")
	if f.RebuildFunc != nil {
		return f.RebuildFunc(ctx)
	}
	return &leaderboardservice.RebuildReport{}, nil
}

func (f *FakeLeaderboardService) InvalidateCache(ctx context.Context) error {
	f.record("InvalidateCache")
	if f.InvalidateCacheFunc != nil {
		return f.InvalidateCacheFunc(ctx)
	}
	return nil
}

func (f *FakeLeaderboardService) ExportStandings(ctx context.Context, q leaderboardservice.Query) ([]byte, error) {
	f.record("ExportStandings")
	if f.ExportStandingsFunc != nil {
		return f.ExportStandingsFunc(ctx, q)
	}
	return []byte("xlsx"), nil
}

func (f *FakeLeaderboardService) PointsHistoryChart(ctx context.Context, playerID string) ([]byte, error) {
	f.record("PointsHistoryChart")
	if f.PointsHistoryChartFunc != nil {
		return f.PointsHistoryChartFunc(ctx, playerID)
	}
	return []byte("\x89PNG"), nil
}

var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)

// FakePublisher records published topics.
type FakePublisher struct {
	mu       sync.Mutex
	topics   []string
	messages []*message.Message
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, m)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.topics)
}

type FakeEnqueuer struct {
	calls int
	err   error
}

func (e *FakeEnqueuer) EnqueueReconcile(context.Context) error {
	e.calls++
	return e.err
}
