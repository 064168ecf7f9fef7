package leaderboardhandlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	leaderboardevents "github.com/Black-And-White-Club/doubles-bot/app/events/leaderboard"
	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeLeaderboardService, pub *FakePublisher, enq Enqueuer) *LeaderboardHandlers {
	var publisher message.Publisher
	if pub != nil {
		publisher = pub
	}
	return NewLeaderboardHandlers(svc, publisher, enq, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleLedgerUpdated(t *testing.T) {
	tests := []struct {
		name    string
		payload *ledgerevents.UpdatedPayloadV1
		invErr  error
		wantErr bool
		wantTr  []string
	}{
		{
			name:    "invalidates the cache",
			payload: &ledgerevents.UpdatedPayloadV1{Source: ledgerevents.SourceFinalize},
			wantTr:  []string{"InvalidateCache"},
		},
		{
			name:    "cache failure is swallowed",
			payload: &ledgerevents.UpdatedPayloadV1{Source: ledgerevents.SourceQuick},
			invErr:  errors.New("redis down"),
			wantTr:  []string{"InvalidateCache"},
		},
		{
			name:    "nil payload",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeLeaderboardService{InvalidateCacheFunc: func(context.Context) error { return tt.invErr }}
			h := newTestHandlers(svc, nil, nil)

			out, err := h.HandleLedgerUpdated(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, out)
			assert.Equal(t, tt.wantTr, svc.Trace())
		})
	}
}

func TestHandleLeaderboardRequested(t *testing.T) {
	generated := time.Date(2024, time.January, 8, 20, 0, 0, 0, time.UTC)
	board := &leaderboarddomain.Leaderboard{
		Mode:        leaderboarddomain.ModeDoubles,
		View:        leaderboarddomain.ViewClub,
		Threshold:   5,
		Entries:     []leaderboarddomain.Entry{{Rank: 1, ID: "A:B"}},
		GeneratedAt: generated,
	}

	tests := []struct {
		name      string
		ctx       context.Context
		payload   *leaderboardevents.RequestedPayloadV1
		getErr    error
		wantTopic string
		wantType  string
		wantErr   bool
		verify    func(t *testing.T, payload any)
	}{
		{
			name:      "replies on the default topic",
			ctx:       context.Background(),
			payload:   &leaderboardevents.RequestedPayloadV1{Mode: "doubles", View: "club", Threshold: intPtr(5)},
			wantTopic: leaderboardevents.ResponseV1,
			wantType:  leaderboardevents.ResponseV1,
			verify: func(t *testing.T, payload any) {
				resp, ok := payload.(leaderboardevents.ResponsePayloadV1)
				require.True(t, ok)
				assert.Equal(t, leaderboarddomain.ModeDoubles, resp.Mode)
				assert.Equal(t, 5, resp.Threshold)
				assert.Equal(t, board.Entries, resp.Entries)
				assert.Equal(t, generated, resp.GeneratedAt)
			},
		},
		{
			name:      "honors reply_to",
			ctx:       context.WithValue(context.Background(), handlerwrapper.CtxKeyReplyTo, "_INBOX.abc"),
			payload:   &leaderboardevents.RequestedPayloadV1{},
			wantTopic: "_INBOX.abc",
			wantType:  leaderboardevents.ResponseV1,
		},
		{
			name:      "invalid request replies with a failure",
			ctx:       context.WithValue(context.Background(), handlerwrapper.CtxKeyReplyTo, "_INBOX.abc"),
			payload:   &leaderboardevents.RequestedPayloadV1{Mode: "triples"},
			getErr:    sessiondomain.NewInvalidInput("mode", "unknown mode %q", "triples"),
			wantTopic: "_INBOX.abc",
			wantType:  leaderboardevents.FailedV1,
			verify: func(t *testing.T, payload any) {
				failed, ok := payload.(leaderboardevents.FailedPayloadV1)
				require.True(t, ok)
				assert.Equal(t, "invalid_input", failed.Kind)
			},
		},
		{
			name:    "infrastructure error is retried",
			ctx:     context.Background(),
			payload: &leaderboardevents.RequestedPayloadV1{},
			getErr:  errors.New("connection refused"),
			wantErr: true,
		},
		{
			name:    "nil payload",
			ctx:     context.Background(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeLeaderboardService{GetLeaderboardFunc: func(ctx context.Context, q leaderboardservice.Query) (*leaderboarddomain.Leaderboard, error) {
				if tt.getErr != nil {
					return nil, tt.getErr
				}
				return board, nil
			}}
			h := newTestHandlers(svc, nil, nil)

			out, err := h.HandleLeaderboardRequested(tt.ctx, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantTopic, out[0].Topic)
			assert.Equal(t, tt.wantType, out[0].Metadata[MetadataEventType])
			if tt.verify != nil {
				tt.verify(t, out[0].Payload)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
