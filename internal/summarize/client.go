package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Config describes one OpenAI-compatible chat completion endpoint.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	SystemPrompt string

	// RequestsPerSecond paces outgoing calls; 0 disables pacing.
	RequestsPerSecond float64
	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit; 0 disables the breaker. While open, calls fail as ErrUpstream
	// without reaching the endpoint.
	BreakerThreshold int
	// BreakerCooldown is how long the circuit stays open before a trial call.
	BreakerCooldown time.Duration
}

// DefaultConfig returns the settings used against Groq's OpenAI-compatible API.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://api.groq.com/openai/v1",
		Model:           "llama-3.1-8b-instant",
		MaxTokens:       512,
		Temperature:     0.3,
		Timeout:         30 * time.Second,
		SystemPrompt:    DefaultSystemPrompt,
		BreakerCooldown: 30 * time.Second,
	}
}

// Client summarizes one chunk of text per call. It never retries; failures
// are returned as *Error classified as ErrRateLimited or ErrUpstream.
type Client struct {
	cfg        Config
	api        *openai.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *Metrics
	logger     *slog.Logger

	// Stats holds the latency and outcome of recent calls.
	Stats *LatencyStats
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every call in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("summarizer base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("summarizer api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("summarizer model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = def.SystemPrompt
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
		Stats:      NewLatencyStats(time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(apiCfg)

	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if cfg.BreakerThreshold > 0 {
		c.breaker = newBreaker(cfg, c.logger)
	}
	return c, nil
}

func newBreaker(cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker {
	threshold := uint32(cfg.BreakerThreshold)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "summarizer",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"circuit", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Model returns the model name sent with every request.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Summarize sends text as the user message and returns the first choice's
// content. Time spent waiting on the pacing limiter is not counted as call
// latency.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	summary, elapsed, err := c.summarize(ctx, text)

	outcome := outcomeOf(err)
	c.Stats.Record(elapsed, outcome)
	c.metrics.observe(outcome, elapsed)

	if err != nil {
		c.logger.WarnContext(ctx, "summarize failed",
			"outcome", outcome,
			"input_chars", len([]rune(text)),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}
	c.logger.DebugContext(ctx, "summarize complete",
		"input_chars", len([]rune(text)),
		"summary_chars", len([]rune(summary)),
		"duration_ms", elapsed.Milliseconds(),
	)
	return summary, nil
}

func (c *Client) summarize(ctx context.Context, text string) (string, time.Duration, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", 0, upstream("waiting for rate limiter", err)
		}
	}

	start := time.Now()
	if c.breaker == nil {
		summary, err := c.complete(ctx, text)
		return summary, time.Since(start), err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, text)
	})
	elapsed := time.Since(start)
	// Refusals by an open breaker are local, not a throttling signal.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", elapsed, upstream("circuit breaker open", err)
	}
	if err != nil {
		return "", elapsed, err
	}
	return out.(string), elapsed, nil
}

// complete performs exactly one chat completion call.
func (c *Client) complete(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", upstream("response has no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return rateLimited("", err)
		}
		return upstream(fmt.Sprintf("status %d", apiErr.HTTPStatusCode), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return rateLimited("", err)
		}
		return upstream(fmt.Sprintf("status %d", reqErr.HTTPStatusCode), err)
	}
	return upstream("", err)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
