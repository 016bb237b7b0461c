package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T, ratio float64, log *slog.Logger) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := NewProvider(Config{SampleRatio: ratio}, log, sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestMiddleware_CreatesServerSpan(t *testing.T) {
	tp, exporter := newRecordingProvider(t, 1, discard())

	var traceInHandler string
	handler := Middleware(tp, Propagator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceInHandler = TraceID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/upload", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "POST /api/upload" {
		t.Errorf("expected span name 'POST /api/upload', got %q", span.Name)
	}
	if got := rr.Header().Get(TraceIDHeader); got != span.SpanContext.TraceID().String() {
		t.Errorf("expected %s header %s, got %q", TraceIDHeader, span.SpanContext.TraceID(), got)
	}
	if traceInHandler != span.SpanContext.TraceID().String() {
		t.Errorf("handler context should carry the span, got trace %q", traceInHandler)
	}

	var status int64
	for _, kv := range span.Attributes {
		if kv.Key == "http.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	if status != http.StatusCreated {
		t.Errorf("expected http.status_code=201, got %d", status)
	}
	if span.Status.Code == codes.Error {
		t.Error("2xx response must not mark the span as failed")
	}
}

func TestMiddleware_ServerErrorMarksSpan(t *testing.T) {
	tp, exporter := newRecordingProvider(t, 1, discard())

	handler := Middleware(tp, Propagator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	tp, exporter := newRecordingProvider(t, 0, discard())

	const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-"+parentTrace+"-00f067aa0ba902b7-01")

	handler := Middleware(tp, Propagator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(TraceIDHeader); got != parentTrace {
		t.Errorf("expected trace id %s, got %q", parentTrace, got)
	}
	// A sampled parent is recorded even with a zero ratio.
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Parent.SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("expected remote parent, got %s", spans[0].Parent.SpanID())
	}
}

func TestNewProvider_ZeroRatioDropsNewTraces(t *testing.T) {
	tp, exporter := newRecordingProvider(t, 0, discard())

	_, span := tp.Tracer("test").Start(context.Background(), "dropped")
	span.End()

	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("expected no recorded spans, got %d", n)
	}
}

func TestLogProcessor_LogsFinishedSpans(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tp, _ := newRecordingProvider(t, 1, log)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, child := tp.Tracer("test").Start(ctx, "child")
	child.RecordError(errors.New("boom"))
	child.SetStatus(codes.Error, "upstream failure")
	child.End()
	parent.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "span finished" || entry["name"] != "child" {
		t.Errorf("unexpected first entry: %v", entry)
	}
	if entry["status"] != "Error" || entry["status_description"] != "upstream failure" {
		t.Errorf("expected error status in log, got %v", entry)
	}
	if entry["trace_id"] != parent.SpanContext().TraceID().String() {
		t.Errorf("expected trace id %s, got %v", parent.SpanContext().TraceID(), entry["trace_id"])
	}
	if entry["parent_span_id"] != parent.SpanContext().SpanID().String() {
		t.Errorf("expected parent span id, got %v", entry["parent_span_id"])
	}
}

func TestLogProcessor_SilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tp, _ := newRecordingProvider(t, 1, log)

	_, span := tp.Tracer("test").Start(context.Background(), "quiet")
	span.End()

	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %s", buf.String())
	}
}

func TestTraceID_EmptyWithoutSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("expected empty trace id, got %q", got)
	}
}
