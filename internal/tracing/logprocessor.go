package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogProcessor writes each finished span to a slog.Logger at debug level.
type LogProcessor struct {
	log *slog.Logger
}

var _ sdktrace.SpanProcessor = (*LogProcessor)(nil)

func NewLogProcessor(log *slog.Logger) *LogProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &LogProcessor{log: log}
}

func (p *LogProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	ctx := context.Background()
	if !p.log.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sc := s.SpanContext()
	attrs := []any{
		"name", s.Name(),
		"trace_id", sc.TraceID().String(),
		"span_id", sc.SpanID().String(),
		"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
		"status", s.Status().Code.String(),
	}
	if parent := s.Parent(); parent.IsValid() {
		attrs = append(attrs, "parent_span_id", parent.SpanID().String())
	}
	if s.Status().Code == codes.Error && s.Status().Description != "" {
		attrs = append(attrs, "status_description", s.Status().Description)
	}
	for _, kv := range s.Attributes() {
		attrs = append(attrs, "attr."+string(kv.Key), kv.Value.Emit())
	}
	p.log.Debug("span finished", attrs...)
}

func (p *LogProcessor) Shutdown(context.Context) error { return nil }

func (p *LogProcessor) ForceFlush(context.Context) error { return nil }
