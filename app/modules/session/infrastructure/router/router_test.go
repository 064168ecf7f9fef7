package sessionrouter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	sessionevents "github.com/Black-And-White-Club/doubles-bot/app/events/session"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// stubHandlers answers submit requests and ignores everything else.
type stubHandlers struct {
	sessionID uuid.UUID
}

func (s *stubHandlers) HandleSubmitRequested(ctx context.Context, p *sessionevents.SubmitRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return []handlerwrapper.Result{{
		Topic:   sessionevents.SubmittedV1,
		Payload: sessionevents.SubmittedPayloadV1{SessionID: s.sessionID, ScribeID: p.ScribeID, Revision: 1},
	}}, nil
}

func (s *stubHandlers) HandleVoteRequested(context.Context, *sessionevents.VoteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return nil, nil
}

func (s *stubHandlers) HandleResubmitRequested(context.Context, *sessionevents.ResubmitRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return nil, nil
}

func (s *stubHandlers) HandleQuickRequested(context.Context, *sessionevents.QuickRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return nil, nil
}

func (s *stubHandlers) RegisterRoutes(chi.Router) {}

func TestSessionRouter_SubmitRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInMemoryEventBus(logger)
	t.Cleanup(func() { _ = bus.Close() })

	wmRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)

	r := NewSessionRouter(logger, wmRouter, bus, bus, metrics.NewNoop(), noop.NewTracerProvider().Tracer("test"))
	stub := &stubHandlers{sessionID: uuid.New()}
	require.NoError(t, r.Configure(context.Background(), stub))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	replies, err := bus.Subscribe(ctx, sessionevents.SubmittedV1)
	require.NoError(t, err)

	go func() { _ = wmRouter.Run(ctx) }()
	select {
	case <-wmRouter.Running():
	case <-ctx.Done():
		t.Fatal("router did not start")
	}
	t.Cleanup(func() { _ = r.Close() })

	body, err := json.Marshal(sessionevents.SubmitRequestedPayloadV1{ScribeID: "bob"})
	require.NoError(t, err)
	req := message.NewMessage(watermill.NewUUID(), body)
	middleware.SetCorrelationID("corr-1", req)
	require.NoError(t, bus.Publish(sessionevents.SubmitRequestedV1, req))

	select {
	case msg := <-replies:
		msg.Ack()
		var got sessionevents.SubmittedPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, stub.sessionID, got.SessionID)
		assert.Equal(t, "corr-1", middleware.MessageCorrelationID(msg))
	case <-ctx.Done():
		t.Fatal("no submitted event")
	}
}
