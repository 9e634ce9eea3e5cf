package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	FalAPIKey         string
	FalBaseURL        string
	FalTextEndpoint   string
	FalTextModel      string
	ProviderTimeout   time.Duration
	MaxConcurrentJobs int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PresignTTL     time.Duration

	JobPollInterval   time.Duration
	RetentionMaxAge   time.Duration
	RetentionInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		FalAPIKey:         os.Getenv("FAL_KEY"),
		FalBaseURL:        getEnv("FAL_BASE_URL", "https://fal.run"),
		FalTextEndpoint:   getEnv("FAL_TEXT_ENDPOINT", "fal-ai/any-llm"),
		FalTextModel:      getEnv("FAL_TEXT_DEFAULT_MODEL", "openai/gpt-4o-mini"),
		ProviderTimeout:   time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS_PER_USER", 4),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "weav-artifacts"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		PresignTTL:     time.Minute * time.Duration(getEnvInt("PRESIGN_TTL_MINUTES", 60)),

		JobPollInterval:   time.Second * time.Duration(getEnvInt("JOB_POLL_INTERVAL_SECONDS", 2)),
		RetentionMaxAge:   24 * time.Hour * time.Duration(getEnvInt("RETENTION_MAX_AGE_DAYS", 30)),
		RetentionInterval: time.Hour * time.Duration(getEnvInt("RETENTION_INTERVAL_HOURS", 24)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
