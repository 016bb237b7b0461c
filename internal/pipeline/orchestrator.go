package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/summariq/internal/chunker"
	"github.com/dgallion1/summariq/internal/delivery"
	"github.com/dgallion1/summariq/internal/parser"
	"github.com/dgallion1/summariq/internal/summarize"
)

// TextExtractor turns document bytes of a given extension into plain text.
type TextExtractor interface {
	Extract(data []byte, ext string) (string, error)
}

// Summarizer summarizes one chunk of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Renderer turns summary text into a PDF.
type Renderer interface {
	Render(summary string) ([]byte, error)
}

// UploadedDocument is one upload as received from the caller.
type UploadedDocument struct {
	Filename     string
	Extension    string
	Content      []byte
	DeclaredSize int64
}

// Config holds the per-request limits of the pipeline.
type Config struct {
	AllowedExtensions []string
	MaxUploadBytes    int64
	ChunkSize         int
	// Concurrency bounds in-flight summarization calls per upload. 1 keeps
	// the calls strictly sequential.
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		AllowedExtensions: []string{".pdf", ".docx"},
		MaxUploadBytes:    5 * 1024 * 1024,
		ChunkSize:         chunker.DefaultConfig().MaxLen,
		Concurrency:       1,
	}
}

// Orchestrator runs uploads through extract, chunk, summarize and join, and
// renders and mails finished summaries. It holds no per-request state.
type Orchestrator struct {
	cfg        Config
	allowed    map[string]bool
	extractor  TextExtractor
	summarizer Summarizer
	renderer   Renderer
	sender     delivery.Sender
	log        *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

func New(cfg Config, ex TextExtractor, sum Summarizer, rend Renderer, send delivery.Sender, log *slog.Logger, opts ...Option) *Orchestrator {
	def := DefaultConfig()
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = def.AllowedExtensions
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[parser.NormalizeExtension(ext)] = true
	}

	o := &Orchestrator{
		cfg:        cfg,
		allowed:    allowed,
		extractor:  ex,
		summarizer: sum,
		renderer:   rend,
		sender:     send,
		log:        log,
		tracer:     otel.Tracer("github.com/dgallion1/summariq/internal/pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessUpload validates doc, extracts its text, summarizes every chunk and
// joins the summaries with "\n" in chunk order. Any failure aborts the whole
// upload; no partial summary is ever returned.
func (o *Orchestrator) ProcessUpload(ctx context.Context, doc UploadedDocument) (summary string, err error) {
	ext := parser.NormalizeExtension(doc.Extension)
	uploadID := uuid.NewString()
	log := o.log.With("upload_id", uploadID, "filename", doc.Filename, "ext", ext)

	ctx, span := o.tracer.Start(ctx, "pipeline.ProcessUpload", trace.WithAttributes(
		attribute.String("upload.id", uploadID),
		attribute.String("upload.ext", ext),
		attribute.Int("upload.bytes", len(doc.Content)),
	))
	if sc := span.SpanContext(); sc.HasTraceID() {
		log = log.With("trace_id", sc.TraceID().String())
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			// The HTTP layer reports the failure; this only adds pipeline context.
			log.Debug("upload failed", "kind", KindOf(err).String(), "error", err)
		}
		o.metrics.upload(err)
		span.End()
	}()

	// Phase 1: Validate
	if !o.allowed[ext] {
		return "", validation(ErrUnsupportedType, "")
	}
	size := max(doc.DeclaredSize, int64(len(doc.Content)))
	if size > o.cfg.MaxUploadBytes {
		return "", validation(ErrTooLarge, fmt.Sprintf("file too large (max %d bytes)", o.cfg.MaxUploadBytes))
	}
	if len(doc.Content) == 0 {
		return "", validation(ErrNoText, "")
	}

	// Phase 2: Extract
	text, err := o.extractor.Extract(doc.Content, ext)
	if err != nil {
		return "", &Error{Kind: KindExtraction, Msg: "could not extract text from document", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", validation(ErrNoText, "")
	}

	// Phase 3: Chunk
	chunks, err := chunker.Split(text, o.cfg.ChunkSize)
	if err != nil {
		return "", validation(err, "")
	}
	o.metrics.chunkCount(len(chunks))
	span.SetAttributes(attribute.Int("upload.chunks", len(chunks)))
	log.Info("chunked document", "chars", len([]rune(text)), "chunks", len(chunks))

	// Phase 4: Summarize
	summaries, err := o.summarizeAll(ctx, chunks, log)
	if err != nil {
		return "", err
	}

	summary = strings.Join(summaries, "\n")
	log.Info("upload summarized", "chunks", len(chunks), "summary_chars", len([]rune(summary)))
	return summary, nil
}

// summarizeAll returns one summary per chunk in index order. With
// Concurrency > 1 calls overlap, the first failure cancels the rest, and the
// error reported is the one at the lowest chunk index.
func (o *Orchestrator) summarizeAll(ctx context.Context, chunks []chunker.Chunk, log *slog.Logger) ([]string, error) {
	summaries := make([]string, len(chunks))

	if o.cfg.Concurrency <= 1 || len(chunks) <= 1 {
		for _, c := range chunks {
			s, err := o.summarizeChunk(ctx, c, len(chunks), log)
			if err != nil {
				return nil, err
			}
			summaries[c.Index] = s
		}
		return summaries, nil
	}

	errs := make([]error, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := o.summarizeChunk(gctx, c, len(chunks), log)
			if err != nil {
				errs[c.Index] = err
				return err
			}
			summaries[c.Index] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, earliestFailure(errs, err)
	}
	return summaries, nil
}

// earliestFailure prefers the lowest-index error that is not just the echo of
// a sibling's cancellation.
func earliestFailure(errs []error, fallback error) error {
	var firstCancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if firstCancelled == nil {
				firstCancelled = err
			}
			continue
		}
		return err
	}
	if firstCancelled != nil {
		return firstCancelled
	}
	return &Error{Kind: KindUpstream, Msg: "summarization aborted", Err: fallback}
}

func (o *Orchestrator) summarizeChunk(ctx context.Context, c chunker.Chunk, total int, log *slog.Logger) (string, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.summarizeChunk", trace.WithAttributes(
		attribute.Int("chunk.index", c.Index),
		attribute.Int("chunk.chars", len([]rune(c.Text))),
	))
	defer span.End()

	log.Debug("summarizing chunk", "chunk", c.Index, "of", total, "est_tokens", chunker.EstimateTokens(c.Text))

	s, err := o.summarizer.Summarize(ctx, c.Text)
	if err != nil {
		kind := KindUpstream
		if errors.Is(err, summarize.ErrRateLimited) {
			kind = KindRateLimited
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		return "", &Error{Kind: kind, Msg: fmt.Sprintf("summarizing chunk %d of %d", c.Index+1, total), Err: err}
	}
	return s, nil
}
