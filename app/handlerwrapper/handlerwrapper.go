package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

// CtxKeyReplyTo carries the requester's reply subject into typed handlers.
const CtxKeyReplyTo ctxKey = "reply_to"

// MetadataReplyTo is the message metadata key for request/reply subjects.
const MetadataReplyTo = "reply_to"

// Result is a message a handler wants published once it returns.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// WrapTransformingTyped decodes the message payload into T, runs handler, and
// publishes every returned Result. Decode failures are logged and acked since
// redelivery cannot fix them; handler errors are returned so the router retries.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	m metrics.OperationMetrics,
	handler func(context.Context, *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	if m == nil {
		m = metrics.NewNoop()
	}

	return func(msg *message.Message) error {
		ctx, span := tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
		))
		defer span.End()

		ctx = attr.WithCorrelationID(ctx, middleware.MessageCorrelationID(msg))
		if rt := msg.Metadata.Get(MetadataReplyTo); rt != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, rt)
		}

		m.RecordOperationAttempt(ctx, handlerName, "handler")
		start := time.Now()
		defer func() {
			m.RecordOperationDuration(ctx, handlerName, "handler", time.Since(start))
		}()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to decode message payload",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			m.RecordOperationFailure(ctx, handlerName, "handler")
			return nil
		}

		out, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			m.RecordOperationFailure(ctx, handlerName, "handler")
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		if err := Publish(ctx, publisher, out...); err != nil {
			span.RecordError(err)
			m.RecordOperationFailure(ctx, handlerName, "handler")
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		m.RecordOperationSuccess(ctx, handlerName, "handler")
		return nil
	}
}

// NewMessage encodes a Result as a Watermill message, propagating the
// correlation id from ctx.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", r.Topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	for k, v := range r.Metadata {
		msg.Metadata.Set(k, v)
	}

	correlationID := attr.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = msg.UUID
	}
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}

// Publish sends every result to its topic.
func Publish(ctx context.Context, publisher message.Publisher, results ...Result) error {
	for _, r := range results {
		if r.Topic == "" {
			continue
		}
		msg, err := NewMessage(ctx, r)
		if err != nil {
			return err
		}
		if err := publisher.Publish(r.Topic, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", r.Topic, err)
		}
	}
	return nil
}

// ReplyTopic returns the reply subject carried by ctx, or fallback.
func ReplyTopic(ctx context.Context, fallback string) string {
	if rt, ok := ctx.Value(CtxKeyReplyTo).(string); ok && rt != "" {
		return rt
	}
	return fallback
}
