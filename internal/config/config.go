package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docshape/docshape/internal/sink"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Optional webhook delivery
	WebhookURL    string
	WebhookAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Output defaults
	DefaultFormat string

	// Optional pipeline definition file. Empty means the built-in
	// normalization chain.
	PipelineFile string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCSHAPE_API_KEY"),

		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookAPIKey: os.Getenv("WEBHOOK_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultFormat: envOr("DEFAULT_FORMAT", "json"),
		PipelineFile:  os.Getenv("PIPELINE_FILE"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSHAPE_API_KEY is required")
	}
	if !sink.IsSupportedFormat(c.DefaultFormat) {
		return fmt.Errorf("DEFAULT_FORMAT %q is not a supported output format", c.DefaultFormat)
	}
	if c.WebhookAPIKey != "" && c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_API_KEY is set but WEBHOOK_URL is empty")
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
