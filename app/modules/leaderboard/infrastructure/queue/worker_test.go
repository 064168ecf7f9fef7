package leaderboardqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	report *leaderboardservice.ReconcileReport
	err    error
	calls  int
}

func (f *fakeReconciler) Reconcile(context.Context) (*leaderboardservice.ReconcileReport, error) {
	f.calls++
	return f.report, f.err
}

type recordingPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	for _, m := range msgs {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, m)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestReconcileWorker_Work(t *testing.T) {
	detectedAt := time.Date(2024, time.January, 8, 3, 0, 0, 0, time.UTC)
	mismatches := []sessiondomain.Mismatch{
		{Entity: "player", ID: "A", Field: "wins", Ledger: "3", Computed: "2"},
	}

	tests := []struct {
		name        string
		reconciler  *fakeReconciler
		publishErr  error
		wantErr     bool
		wantTopics  []string
		wantPayload *ledgerevents.InconsistentPayloadV1
	}{
		{
			name:       "clean ledger publishes nothing",
			reconciler: &fakeReconciler{report: &leaderboardservice.ReconcileReport{Records: 3}},
		},
		{
			name:        "divergence is announced and completes the job",
			reconciler:  &fakeReconciler{err: &sessiondomain.ConsistencyError{Mismatches: mismatches}},
			wantTopics:  []string{ledgerevents.InconsistentV1},
			wantPayload: &ledgerevents.InconsistentPayloadV1{Mismatches: mismatches, DetectedAt: detectedAt},
		},
		{
			name:       "publish failure still completes the job",
			reconciler: &fakeReconciler{err: &sessiondomain.ConsistencyError{Mismatches: mismatches}},
			publishErr: errors.New("nats down"),
		},
		{
			name:       "infrastructure error is retried",
			reconciler: &fakeReconciler{err: errors.New("connection refused")},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{err: tt.publishErr}
			w := NewReconcileWorker(tt.reconciler, pub, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
			w.now = func() time.Time { return detectedAt }

			err := w.Work(context.Background(), &river.Job[ReconcileJob]{Args: ReconcileJob{Trigger: TriggerPeriodic}})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, tt.reconciler.calls)
			assert.Equal(t, tt.wantTopics, pub.topics)

			if tt.wantPayload != nil {
				require.Len(t, pub.messages, 1)
				var got ledgerevents.InconsistentPayloadV1
				require.NoError(t, json.Unmarshal(pub.messages[0].Payload, &got))
				assert.Equal(t, *tt.wantPayload, got)
			}
		})
	}
}

func TestReconcileJob_Kind(t *testing.T) {
	assert.Equal(t, "ledger_reconcile", ReconcileJob{}.Kind())
}
