package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this process in traces and metrics.
const ServiceName = "doubles-bot"

// Provider holds the process logger.
type Provider struct {
	Logger *slog.Logger
}

// Registry holds tracing and metrics handles.
type Registry struct {
	Tracer     trace.Tracer
	Prometheus *prometheus.Registry
	Metrics    metrics.OperationMetrics
}

// Observability bundles everything a module needs to log, trace and count.
type Observability struct {
	Provider Provider
	Registry Registry

	shutdown func(context.Context) error
}

// Init builds the logger, tracer provider and metrics registry.
func Init(ctx context.Context, cfg config.ObservabilityConfig) (*Observability, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})).With(
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracer, shutdown, err := newTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &Observability{
		Provider: Provider{Logger: logger},
		Registry: Registry{
			Tracer:     tracer,
			Prometheus: reg,
			Metrics:    metrics.NewPrometheusMetrics(reg, "doubles"),
		},
		shutdown: shutdown,
	}, nil
}

// NewNoop returns an Observability suitable for tests and CLI commands.
func NewNoop(logger *slog.Logger) *Observability {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observability{
		Provider: Provider{Logger: logger},
		Registry: Registry{
			Tracer:     noop.NewTracerProvider().Tracer(ServiceName),
			Prometheus: prometheus.NewRegistry(),
			Metrics:    metrics.NewNoop(),
		},
	}
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	return o.shutdown(ctx)
}

// newTracer exports spans over OTLP/HTTP when an endpoint is configured and
// falls back to a noop tracer otherwise.
func newTracer(ctx context.Context, cfg config.ObservabilityConfig) (trace.Tracer, func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return noop.NewTracerProvider().Tracer(ServiceName), nil, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Tracer(ServiceName), tp.Shutdown, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
