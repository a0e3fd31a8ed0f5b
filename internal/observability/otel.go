// File: internal/observability/otel.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/iyunix/go-triage"

// Setup installs an OTLP/gRPC trace exporter. With an empty endpoint the
// global no-op provider stays in place and the returned shutdown does nothing.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider.Shutdown, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Metrics holds the pipeline instruments.
type Metrics struct {
	LLMCalls          metric.Int64Counter
	LLMFailures       metric.Int64Counter
	DetectionDuration metric.Float64Histogram
}

// InitMetrics creates instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	llmCalls, err := meter.Int64Counter(
		"triage.llm.calls",
		metric.WithDescription("Number of chat-completion calls"),
	)
	if err != nil {
		return nil, err
	}

	llmFailures, err := meter.Int64Counter(
		"triage.llm.failures",
		metric.WithDescription("Number of failed chat-completion calls"),
	)
	if err != nil {
		return nil, err
	}

	detection, err := meter.Float64Histogram(
		"triage.detection.duration",
		metric.WithDescription("Disease detection latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LLMCalls:          llmCalls,
		LLMFailures:       llmFailures,
		DetectionDuration: detection,
	}, nil
}

// RecordLLMCall counts one model call for operation ("propose", "finalize").
func (m *Metrics) RecordLLMCall(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.LLMCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.LLMFailures.Add(ctx, 1, attrs)
	}
}

// RecordDetection records one detection latency.
func (m *Metrics) RecordDetection(ctx context.Context, d time.Duration, hits int) {
	if m == nil {
		return
	}
	m.DetectionDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(attribute.Int("hits", hits)))
}
