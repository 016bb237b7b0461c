package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ChunkSize != 2000 {
		t.Errorf("expected chunk size 2000, got %d", cfg.ChunkSize)
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Errorf("expected max upload 5MiB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.SummarizerTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.SummarizerTimeout)
	}
	if cfg.SummarizerMaxTokens != 512 {
		t.Errorf("expected 512 max tokens, got %d", cfg.SummarizerMaxTokens)
	}
	if cfg.SummarizeConcurrency != 1 {
		t.Errorf("expected sequential summarization by default, got %d", cfg.SummarizeConcurrency)
	}
	if cfg.SummarizerBreakerThreshold != 0 {
		t.Errorf("expected breaker disabled by default, got threshold %d", cfg.SummarizerBreakerThreshold)
	}
	if !cfg.TracingEnabled || cfg.TracingSampleRatio != 1.0 {
		t.Errorf("expected tracing on at ratio 1, got %v/%v", cfg.TracingEnabled, cfg.TracingSampleRatio)
	}
	if cfg.SMTPTLSPolicy != "opportunistic" {
		t.Errorf("expected opportunistic smtp tls, got %q", cfg.SMTPTLSPolicy)
	}
	if cfg.MailFrom != "no-reply@summariq.com" {
		t.Errorf("expected default from address, got %q", cfg.MailFrom)
	}
	want := []string{".pdf", ".docx"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("expected extensions %v, got %v", want, cfg.AllowedExtensions)
	}
	for i := range want {
		if cfg.AllowedExtensions[i] != want[i] {
			t.Errorf("extension[%d]: expected %q, got %q", i, want[i], cfg.AllowedExtensions[i])
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SUMMARIZER_TIMEOUT", "5s")
	t.Setenv("SUMMARIZER_TEMPERATURE", "0.1")
	t.Setenv("ALLOWED_EXTENSIONS", "PDF, .docx ,md,")

	cfg := Load()

	if cfg.ChunkSize != 500 {
		t.Errorf("expected chunk size 500, got %d", cfg.ChunkSize)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("expected max upload 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.SummarizerTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.SummarizerTimeout)
	}
	if cfg.SummarizerTemperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %f", cfg.SummarizerTemperature)
	}
	want := []string{".pdf", ".docx", ".md"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("expected extensions %v, got %v", want, cfg.AllowedExtensions)
	}
	for i := range want {
		if cfg.AllowedExtensions[i] != want[i] {
			t.Errorf("extension[%d]: expected %q, got %q", i, want[i], cfg.AllowedExtensions[i])
		}
	}
}

func TestLoad_NonPositiveFallsBackToDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "0")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")
	t.Setenv("SUMMARIZE_CONCURRENCY", "-3")
	t.Setenv("SUMMARIZER_TIMEOUT", "not-a-duration")
	t.Setenv("TRACING_SAMPLE_RATIO", "2.5")

	cfg := Load()

	if cfg.ChunkSize != 2000 {
		t.Errorf("expected default chunk size, got %d", cfg.ChunkSize)
	}
	if cfg.MaxUploadBytes != 5*1024*1024 {
		t.Errorf("expected default max upload, got %d", cfg.MaxUploadBytes)
	}
	if cfg.SummarizeConcurrency != 1 {
		t.Errorf("expected default concurrency, got %d", cfg.SummarizeConcurrency)
	}
	if cfg.SummarizerTimeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.SummarizerTimeout)
	}
	if cfg.TracingSampleRatio != 1.0 {
		t.Errorf("expected default sample ratio, got %v", cfg.TracingSampleRatio)
	}
}

func TestValidate_RequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing jwt secret", Config{SummarizerAPIKey: "k", SummarizerBaseURL: "u", SummarizerModel: "m"}, true},
		{"missing api key", Config{AuthJWTSecret: "s", SummarizerBaseURL: "u", SummarizerModel: "m"}, true},
		{"missing model", Config{AuthJWTSecret: "s", SummarizerAPIKey: "k", SummarizerBaseURL: "u"}, true},
		{"complete", Config{AuthJWTSecret: "s", SummarizerAPIKey: "k", SummarizerBaseURL: "u", SummarizerModel: "m"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
