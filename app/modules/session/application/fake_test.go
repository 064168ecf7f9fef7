package sessionservice

import (
	"context"
	"slices"
	"testing"
	"time"

	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Ledger Applier
// ------------------------

type FakeApplier struct {
	trace   []string
	entries []ledgerservice.Entry

	ApplyFunc func(ctx context.Context, db bun.IDB, entry ledgerservice.Entry) (*ledgerservice.Applied, error)
}

func (f *FakeApplier) Apply(ctx context.Context, db bun.IDB, entry ledgerservice.Entry) (*ledgerservice.Applied, error) {
	f.trace = append(f.trace, "Apply")
	f.entries = append(f.entries, entry)
	if f.ApplyFunc != nil {
		return f.ApplyFunc(ctx, db, entry)
	}
	awards, err := sessiondomain.ScoreSession(entry.Games)
	if err != nil {
		return nil, err
	}
	return &ledgerservice.Applied{Awards: awards}, nil
}

func (f *FakeApplier) Trace() []string {
	return slices.Clone(f.trace)
}

var _ ledgerservice.Applier = (*FakeApplier)(nil)

// --- fixtures ---

var (
	referenceMonday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	// testNow falls in the second rotation week, so "bob" is on duty.
	testNow = time.Date(2024, time.January, 8, 20, 0, 0, 0, time.UTC)
)

func testFounders(t *testing.T) sessiondomain.Founders {
	t.Helper()
	f, err := sessiondomain.NewFounders([]sessiondomain.PlayerID{"alice", "bob", "carol"}, referenceMonday, time.UTC)
	require.NoError(t, err)
	return f
}

func intPtr(v int) *int { return &v }

func validInputs() []sessiondomain.GameInput {
	return []sessiondomain.GameInput{
		{Slot: sessiondomain.SlotOne, ScoreA: intPtr(9), ScoreB: intPtr(5)},
		{Slot: sessiondomain.SlotTwo, ScoreA: intPtr(7), ScoreB: intPtr(9)},
		{Slot: sessiondomain.SlotThree, Winner: sessiondomain.SideA},
	}
}

func quartet() []sessiondomain.PlayerID {
	return []sessiondomain.PlayerID{"alice", "bob", "carol", "dave"}
}
