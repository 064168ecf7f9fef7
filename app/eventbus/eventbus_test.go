package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_RoundTrip(t *testing.T) {
	bus := NewInMemoryEventBus(slog.Default())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx, "ledger.updated.v1")
	require.NoError(t, err)

	require.NoError(t, bus.Publish("ledger.updated.v1", message.NewMessage(watermill.NewUUID(), []byte(`{"source":"test"}`))))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"source":"test"}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestInMemoryEventBus_CloseIsIdempotent(t *testing.T) {
	bus := NewInMemoryEventBus(slog.Default())
	assert.NoError(t, bus.Close())
}
