package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("MAX_CONCURRENT_JOBS_PER_USER", "")
	t.Setenv("RETENTION_MAX_AGE_DAYS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.FalBaseURL != "https://fal.run" {
		t.Fatalf("FalBaseURL mismatch: got %q", cfg.FalBaseURL)
	}
	if cfg.FalTextEndpoint != "fal-ai/any-llm" {
		t.Fatalf("FalTextEndpoint mismatch: got %q", cfg.FalTextEndpoint)
	}
	if cfg.MaxConcurrentJobs != 4 {
		t.Fatalf("MaxConcurrentJobs mismatch: got %d want 4", cfg.MaxConcurrentJobs)
	}
	if cfg.RetentionMaxAge != 30*24*time.Hour {
		t.Fatalf("RetentionMaxAge mismatch: got %v", cfg.RetentionMaxAge)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted empty DATABASE_URL")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MAX_CONCURRENT_JOBS_PER_USER", "10")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "120")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxConcurrentJobs != 10 {
		t.Fatalf("MaxConcurrentJobs mismatch: got %d want 10", cfg.MaxConcurrentJobs)
	}
	if cfg.ProviderTimeout != 2*time.Minute {
		t.Fatalf("ProviderTimeout mismatch: got %v", cfg.ProviderTimeout)
	}
	if !cfg.MinioUseSSL {
		t.Fatal("MinioUseSSL override ignored")
	}
}

func TestLoadConfigIgnoresMalformedInts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MAX_CONCURRENT_JOBS_PER_USER", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxConcurrentJobs != 4 {
		t.Fatalf("MaxConcurrentJobs mismatch: got %d want fallback 4", cfg.MaxConcurrentJobs)
	}
}
