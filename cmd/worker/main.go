package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weav/internal/adapter/repo"
	"weav/internal/ai"
	"weav/internal/ai/fal"
	"weav/internal/domain"
	"weav/internal/executor"
	"weav/internal/infra"
	"weav/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	artifacts := repo.NewArtifactRepository(pool)

	falClient, err := fal.NewClient(fal.Options{
		APIKey:           cfg.FalAPIKey,
		BaseURL:          cfg.FalBaseURL,
		TextEndpoint:     cfg.FalTextEndpoint,
		DefaultTextModel: cfg.FalTextModel,
		RequestTimeout:   cfg.ProviderTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure fal client")
	}
	router := ai.NewRouter(map[string]ai.Client{"fal": falClient})

	var store storage.BlobStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioStore(storage.MinioOptions{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			Bucket:          cfg.MinioBucket,
			UseSSL:          cfg.MinioUseSSL,
			PresignTTL:      cfg.PresignTTL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure blob store")
		}
		store = minioStore
	} else {
		logger.Warn().Msg("worker: no blob store configured, result urls recorded as-is")
	}

	materializer := executor.NewMaterializer(artifacts, store, logger)
	exec := executor.New(jobs, router, materializer, logger)
	sweeper := executor.NewSweeper(jobs, artifacts, store, cfg.RetentionMaxAge, logger)

	go runRetention(ctx, sweeper, cfg.RetentionInterval, logger)

	logger.Info().Msg("worker: started")
	if err := runJobs(ctx, exec, jobs, cfg.JobPollInterval, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// runJobs polls for the oldest queued job and executes it. The executor's
// conditional start guard arbitrates between concurrent workers, so picking
// up the same identifier twice is harmless.
func runJobs(ctx context.Context, exec *executor.Executor, jobs domain.JobRepository, pollInterval time.Duration, logger infra.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		jobID, err := jobs.NextQueued(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Msg("worker: poll queue failed")
			}
			sleep(ctx, pollInterval)
			continue
		}
		if err := exec.Run(ctx, jobID); err != nil {
			logger.Error().Err(err).Str("job_id", jobID).Msg("worker: execution error")
			sleep(ctx, pollInterval)
		}
	}
}

func runRetention(ctx context.Context, sweeper *executor.Sweeper, interval time.Duration, logger infra.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweeper.Sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("worker: retention sweep failed")
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
