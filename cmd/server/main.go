package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgallion1/summariq/internal/api"
	"github.com/dgallion1/summariq/internal/config"
	"github.com/dgallion1/summariq/internal/delivery"
	"github.com/dgallion1/summariq/internal/parser"
	"github.com/dgallion1/summariq/internal/pipeline"
	"github.com/dgallion1/summariq/internal/report"
	"github.com/dgallion1/summariq/internal/summarize"
	"github.com/dgallion1/summariq/internal/tracing"
)

func main() {
	cfg := config.Load()

	level := parseLevel(cfg.LogLevel)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	for _, ext := range cfg.AllowedExtensions {
		if !parser.IsSupportedExtension(ext) {
			log.Error("no parser for allowed extension", "ext", ext)
			os.Exit(1)
		}
	}

	// Tracing: spans are logged at debug level by the SDK provider.
	var tp trace.TracerProvider = otel.GetTracerProvider()
	shutdownTracing := func(context.Context) {}
	if cfg.TracingEnabled {
		sdkTP := tracing.NewProvider(tracing.Config{SampleRatio: cfg.TracingSampleRatio}, log)
		otel.SetTracerProvider(sdkTP)
		otel.SetTextMapPropagator(tracing.Propagator())
		tp = sdkTP
		shutdownTracing = func(ctx context.Context) { tracing.Shutdown(ctx, sdkTP, log) }
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize clients.
	llm, err := summarize.New(summarize.Config{
		BaseURL:           cfg.SummarizerBaseURL,
		APIKey:            cfg.SummarizerAPIKey,
		Model:             cfg.SummarizerModel,
		MaxTokens:         cfg.SummarizerMaxTokens,
		Temperature:       cfg.SummarizerTemperature,
		Timeout:           cfg.SummarizerTimeout,
		RequestsPerSecond: cfg.SummarizerRPS,
		BreakerThreshold:  cfg.SummarizerBreakerThreshold,
	}, summarize.WithLogger(log), summarize.WithMetrics(summarize.NewMetrics(reg)))
	if err != nil {
		log.Error("invalid summarizer configuration", "error", err)
		os.Exit(1)
	}

	var sender delivery.Sender = &delivery.LogSender{Logger: log}
	if cfg.SMTPHost != "" {
		smtp, err := delivery.NewSMTPSender(delivery.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			From:      cfg.MailFrom,
			TLSPolicy: cfg.SMTPTLSPolicy,
		})
		if err != nil {
			log.Error("invalid smtp configuration", "error", err)
			os.Exit(1)
		}
		sender = smtp
	} else {
		log.Warn("SMTP_HOST not set, summary emails will only be logged")
	}

	renderer, err := newRenderer(cfg.ReportFontPath)
	if err != nil {
		log.Error("failed to load report font", "path", cfg.ReportFontPath, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.New(pipeline.Config{
		AllowedExtensions: cfg.AllowedExtensions,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		ChunkSize:         cfg.ChunkSize,
		Concurrency:       cfg.SummarizeConcurrency,
	},
		&parser.Extractor{TempDir: cfg.TempDir, FallbackPdftotext: cfg.PDFFallbackPdftotext},
		llm,
		renderer,
		sender,
		log,
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
		pipeline.WithTracer(tp.Tracer("github.com/dgallion1/summariq/internal/pipeline")),
	)

	// Initialize HTTP server.
	srv := api.NewServer(orch, llm, reg, log, cfg, api.WithTracerProvider(tp))

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// Large uploads are summarized chunk by chunk within one request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llm.Close()
		shutdownTracing(shutdownCtx)
	}()

	log.Info("starting summariq",
		"port", cfg.Port,
		"model", cfg.SummarizerModel,
		"chunk_size", cfg.ChunkSize,
		"allowed_extensions", cfg.AllowedExtensions,
		"tracing", cfg.TracingEnabled,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newRenderer uses the bundled font unless fontPath names a TrueType file.
func newRenderer(fontPath string) (*report.Renderer, error) {
	opts := report.DefaultOptions()
	if fontPath != "" {
		font, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, err
		}
		opts.Font = font
		opts.FontFamily = strings.TrimSuffix(filepath.Base(fontPath), filepath.Ext(fontPath))
	}
	return report.New(opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
