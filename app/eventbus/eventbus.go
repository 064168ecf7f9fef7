package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// EventBus is the publisher and subscriber pair every module router uses.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// eventBus implements EventBus over any Watermill publisher/subscriber pair.
type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// queueGroup load-balances handlers across replicas of this service.
const queueGroup = "doubles"

// NewNATSEventBus connects a core-NATS publisher and subscriber. Session and
// ledger notifications are cache-invalidation hints, so at-most-once core
// NATS delivery is enough and JetStream is not provisioned.
func NewNATSEventBus(natsURL string, logger *slog.Logger) (EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         natsURL,
			Marshaler:   marshaler,
			NatsOptions: options,
			JetStream:   nats.JetStreamConfig{Disabled: true},
		},
		watermillLogger,
	)
	if err != nil {
		logger.Error("Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              natsURL,
			QueueGroupPrefix: queueGroup,
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			Unmarshaler:      marshaler,
			NatsOptions:      options,
			JetStream:        nats.JetStreamConfig{Disabled: true},
		},
		watermillLogger,
	)
	if err != nil {
		publisher.Close()
		logger.Error("Failed to create Watermill subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.Info("Connected event bus to NATS", slog.String("url", natsURL))

	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// NewInMemoryEventBus returns a gochannel-backed bus for single-process
// deployments and tests.
func NewInMemoryEventBus(logger *slog.Logger) EventBus {
	ch := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewSlogLogger(logger),
	)
	return &eventBus{
		publisher:  ch,
		subscriber: ch,
		logger:     logger,
	}
}

// Publish sends messages to a topic.
func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	return eb.publisher.Publish(topic, messages...)
}

// Subscribe subscribes to a topic.
func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return eb.subscriber.Subscribe(ctx, topic)
}

// Close closes both sides of the bus. For the in-process bus they are the
// same instance, which tolerates a second Close.
func (eb *eventBus) Close() error {
	var firstErr error
	if err := eb.publisher.Close(); err != nil {
		firstErr = err
	}
	if err := eb.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		eb.logger.Error("Error closing event bus", slog.Any("error", firstErr))
	}
	return firstErr
}
