package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgallion1/summariq/internal/config"
	"github.com/dgallion1/summariq/internal/pipeline"
	"github.com/dgallion1/summariq/internal/summarize"
	"github.com/dgallion1/summariq/internal/tracing"
)

// Pipeline is the part of the orchestrator the handlers use.
type Pipeline interface {
	ProcessUpload(ctx context.Context, doc pipeline.UploadedDocument) (string, error)
	SendSummary(ctx context.Context, req pipeline.EmailSummaryRequest) error
	RenderSummary(summary string) ([]byte, error)
}

// Server is the HTTP API server for summariq.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	llm      *summarize.Client
	gatherer prometheus.Gatherer
	log      *slog.Logger
	cfg      config.Config
	tp       trace.TracerProvider
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithTracerProvider sets the provider used for request spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) ServerOption {
	return func(s *Server) { s.tp = tp }
}

// NewServer creates and configures the HTTP server. llm and gatherer may be
// nil, which disables the stats and metrics endpoints.
func NewServer(p Pipeline, llm *summarize.Client, gatherer prometheus.Gatherer, log *slog.Logger, cfg config.Config, opts ...ServerOption) *Server {
	s := &Server{
		pipeline: p,
		llm:      llm,
		gatherer: gatherer,
		log:      log,
		cfg:      cfg,
		tp:       otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(tracing.Middleware(s.tp, tracing.Propagator()))
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware([]byte(s.cfg.AuthJWTSecret), s.log))

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/email-summary", s.handleEmailSummary)
		r.Post("/api/summary/pdf", s.handleSummaryPDF)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
