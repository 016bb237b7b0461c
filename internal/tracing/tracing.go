// Package tracing sets up OpenTelemetry tracing for summariq: an SDK tracer
// provider whose finished spans are written to the structured log, and HTTP
// middleware that opens a server span per request.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "summariq"

// Config controls span sampling.
type Config struct {
	// SampleRatio is the fraction of new traces recorded, in [0, 1].
	// Requests that arrive with a sampled parent are always recorded.
	SampleRatio float64
}

// NewProvider returns a tracer provider that samples by cfg.SampleRatio and
// logs every finished span to log. Extra processors (an exporter, or a
// tracetest recorder in tests) can be appended through opts.
func NewProvider(cfg Config, log *slog.Logger, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	ratio := cfg.SampleRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(sdkresource.NewSchemaless(attribute.String("service.name", ServiceName))),
		sdktrace.WithSpanProcessor(NewLogProcessor(log)),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

// Propagator is the W3C trace context propagator used for incoming requests.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// Shutdown flushes and stops tp, logging rather than returning the error.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider, log *slog.Logger) {
	if err := tp.Shutdown(ctx); err != nil {
		log.Error("tracer provider shutdown failed", "error", err)
	}
}
