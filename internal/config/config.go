package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	// Tracing
	TracingEnabled     bool
	TracingSampleRatio float64

	// Auth
	AuthJWTSecret string

	// Summarization endpoint
	SummarizerBaseURL          string
	SummarizerAPIKey           string
	SummarizerModel            string
	SummarizerMaxTokens        int
	SummarizerTemperature      float64
	SummarizerTimeout          time.Duration
	SummarizerRPS              float64
	SummarizerBreakerThreshold int

	// Chunking
	ChunkSize            int
	SummarizeConcurrency int

	// Upload limits
	MaxUploadBytes    int64
	AllowedExtensions []string

	// Extraction
	TempDir              string
	PDFFallbackPdftotext bool

	// Report
	ReportFontPath string // TrueType font replacing the bundled one

	// Mail delivery
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLSPolicy string
	MailFrom      string
}

const (
	defaultMaxUploadBytes = 5 * 1024 * 1024
	defaultChunkSize      = 2000
	defaultMaxTokens      = 512
	defaultTimeout        = 30 * time.Second
)

var defaultExtensions = []string{".pdf", ".docx"}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		TracingEnabled:     envBool("TRACING_ENABLED", true),
		TracingSampleRatio: envFloat("TRACING_SAMPLE_RATIO", 1.0),

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		SummarizerBaseURL:          envOr("SUMMARIZER_BASE_URL", "https://api.groq.com/openai/v1"),
		SummarizerAPIKey:           os.Getenv("SUMMARIZER_API_KEY"),
		SummarizerModel:            envOr("SUMMARIZER_MODEL", "llama-3.1-8b-instant"),
		SummarizerMaxTokens:        envInt("SUMMARIZER_MAX_TOKENS", defaultMaxTokens),
		SummarizerTemperature:      envFloat("SUMMARIZER_TEMPERATURE", 0.3),
		SummarizerTimeout:          envDuration("SUMMARIZER_TIMEOUT", defaultTimeout),
		SummarizerRPS:              envFloat("SUMMARIZER_RPS", 0),
		SummarizerBreakerThreshold: envInt("SUMMARIZER_BREAKER_THRESHOLD", 0),

		ChunkSize:            envInt("CHUNK_SIZE", defaultChunkSize),
		SummarizeConcurrency: envInt("SUMMARIZE_CONCURRENCY", 1),

		MaxUploadBytes:    envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes), // 5MiB
		AllowedExtensions: envList("ALLOWED_EXTENSIONS", defaultExtensions),

		TempDir:              os.Getenv("TEMP_DIR"),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),

		ReportFontPath: os.Getenv("REPORT_FONT_PATH"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPTLSPolicy: envOr("SMTP_TLS_POLICY", "opportunistic"),
		MailFrom:      envOr("MAIL_FROM", "no-reply@summariq.com"),
	}

	if cfg.TracingSampleRatio < 0 || cfg.TracingSampleRatio > 1 {
		cfg.TracingSampleRatio = 1.0
	}
	if cfg.SummarizerMaxTokens <= 0 {
		cfg.SummarizerMaxTokens = defaultMaxTokens
	}
	if cfg.SummarizerTemperature < 0 {
		cfg.SummarizerTemperature = 0.3
	}
	if cfg.SummarizerTimeout <= 0 {
		cfg.SummarizerTimeout = defaultTimeout
	}
	if cfg.SummarizerRPS < 0 {
		cfg.SummarizerRPS = 0
	}
	if cfg.SummarizerBreakerThreshold < 0 {
		cfg.SummarizerBreakerThreshold = 0
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.SummarizeConcurrency <= 0 {
		cfg.SummarizeConcurrency = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = append([]string(nil), defaultExtensions...)
	}
	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 587
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.SummarizerAPIKey == "" {
		return fmt.Errorf("SUMMARIZER_API_KEY is required")
	}
	if c.SummarizerBaseURL == "" {
		return fmt.Errorf("SUMMARIZER_BASE_URL must not be empty")
	}
	if c.SummarizerModel == "" {
		return fmt.Errorf("SUMMARIZER_MODEL must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list of file extensions, lower-cased and
// normalised to carry a leading dot.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
