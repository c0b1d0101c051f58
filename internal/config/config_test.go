package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Fatalf("model = %q", cfg.Model)
	}
	if cfg.Prepare.TargetWidth != 500 {
		t.Fatalf("target width = %d", cfg.Prepare.TargetWidth)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.BaseDelay != 300*time.Millisecond {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
	if cfg.Archive.Enabled {
		t.Fatal("archive should be disabled without an endpoint")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("RADIOLENS_MODEL", "gemini-2.5-pro")
	t.Setenv("RADIOLENS_TARGET_WIDTH", "800")
	t.Setenv("RADIOLENS_GRAYSCALE", "true")
	t.Setenv("RADIOLENS_RETRY_ATTEMPTS", "5")
	t.Setenv("RADIOLENS_RETRY_BASE_DELAY", "1s")
	t.Setenv("RADIOLENS_S3_ENDPOINT", "minio:9000")
	t.Setenv("RADIOLENS_S3_ACCESS_KEY", "ak")
	t.Setenv("RADIOLENS_S3_SECRET_KEY", "sk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Fatalf("model = %q", cfg.Model)
	}
	if cfg.Prepare.TargetWidth != 800 || !cfg.Prepare.Grayscale {
		t.Fatalf("prepare = %+v", cfg.Prepare)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelay != time.Second {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Bucket != "radiolens-reports" {
		t.Fatalf("archive = %+v", cfg.Archive)
	}
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("RADIOLENS_TARGET_WIDTH", "not-a-number")
	t.Setenv("RADIOLENS_RPS", "garbage")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Prepare.TargetWidth != 500 {
		t.Fatalf("target width = %d, want default 500", cfg.Prepare.TargetWidth)
	}
	if cfg.Rate.RPS != 0 {
		t.Fatalf("rps = %v, want 0", cfg.Rate.RPS)
	}
}
