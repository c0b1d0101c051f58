package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when no Gemini credential is configured.
// It is fatal at startup: no request can be served without it.
var ErrMissingAPIKey = errors.New("config: GEMINI_API_KEY is not set")

type Config struct {
	APIKey string
	Model  string

	Prepare PrepareConfig
	Retry   RetryConfig
	Rate    RateConfig
	Cache   CacheConfig
	History HistoryConfig
	Archive ArchiveConfig
}

// PrepareConfig controls image normalization.
type PrepareConfig struct {
	TargetWidth int
	Grayscale   bool
	Contrast    float64 // percentage passed to the contrast adjustment, 0 disables
	TempDir     string  // empty means os.TempDir()
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type RateConfig struct {
	RPS   float64
	Burst int
}

type CacheConfig struct {
	Entries int
	TTL     time.Duration
}

type HistoryConfig struct {
	FilePath    string
	PostgresDSN string // optional; empty keeps the JSON file backend
}

// ArchiveConfig mirrors the S3/MinIO artifact settings. Disabled unless an
// endpoint is configured.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &Config{
		APIKey: apiKey,
		Model:  firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_MODEL")), "gemini-2.5-flash"),
		Prepare: PrepareConfig{
			TargetWidth: envInt("RADIOLENS_TARGET_WIDTH", 500),
			Grayscale:   envBool("RADIOLENS_GRAYSCALE", false),
			Contrast:    envFloat("RADIOLENS_CONTRAST", 0),
			TempDir:     strings.TrimSpace(os.Getenv("RADIOLENS_TEMP_DIR")),
		},
		Retry: RetryConfig{
			MaxAttempts: envInt("RADIOLENS_RETRY_ATTEMPTS", 3),
			BaseDelay:   envDuration("RADIOLENS_RETRY_BASE_DELAY", 300*time.Millisecond),
		},
		Rate: RateConfig{
			RPS:   envFloat("RADIOLENS_RPS", 0),
			Burst: envInt("RADIOLENS_BURST", 1),
		},
		Cache: CacheConfig{
			Entries: envInt("RADIOLENS_CACHE_ENTRIES", 128),
			TTL:     envDuration("RADIOLENS_CACHE_TTL", 10*time.Minute),
		},
		History: HistoryConfig{
			FilePath:    firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_HISTORY_FILE")), "tmp/history.json"),
			PostgresDSN: strings.TrimSpace(os.Getenv("RADIOLENS_HISTORY_PG_DSN")),
		},
		Archive: loadArchiveConfig(),
	}

	if cfg.Prepare.TargetWidth <= 0 {
		cfg.Prepare.TargetWidth = 500
	}
	return cfg, nil
}

func loadArchiveConfig() ArchiveConfig {
	endpoint := strings.TrimSpace(os.Getenv("RADIOLENS_S3_ENDPOINT"))
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("RADIOLENS_S3_BUCKET")), "radiolens-reports"),
		UseSSL:    envBool("RADIOLENS_S3_USE_SSL", false),
	}
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
