package executor

import (
	"context"
	"strings"
	"time"

	"weav/internal/domain"
	"weav/internal/infra"
	"weav/internal/storage"
)

// DefaultRetentionAge is how long terminal jobs are kept when no age is
// configured.
const DefaultRetentionAge = 30 * 24 * time.Hour

// Sweeper deletes terminal jobs and their artifacts once they exceed the
// configured age. Each job is an isolated unit of work: a failure deleting
// one job never stops the sweep.
type Sweeper struct {
	jobs      domain.JobRepository
	artifacts domain.ArtifactRepository
	store     storage.BlobStore
	maxAge    time.Duration
	logger    infra.Logger
}

// NewSweeper constructs a sweeper. A non-positive maxAge falls back to
// DefaultRetentionAge; store may be nil when no blob store is configured.
func NewSweeper(jobs domain.JobRepository, artifacts domain.ArtifactRepository, store storage.BlobStore, maxAge time.Duration, logger infra.Logger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultRetentionAge
	}
	return &Sweeper{jobs: jobs, artifacts: artifacts, store: store, maxAge: maxAge, logger: logger}
}

// Sweep deletes COMPLETED and FAILED jobs older than the configured age and
// returns the number of jobs deleted. Blob deletions are best effort: a
// failed delete is logged and the record cleanup proceeds anyway.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	expired, err := s.jobs.ListTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for i := range expired {
		job := &expired[i]
		if err := s.sweepJob(ctx, job); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("retention: delete job failed")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("retention: sweep finished")
	}
	return deleted, nil
}

func (s *Sweeper) sweepJob(ctx context.Context, job *domain.Job) error {
	artifacts, err := s.artifacts.ListByJobID(ctx, job.ID)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		s.deleteBlob(ctx, &artifact)
	}
	if err := s.artifacts.DeleteByJobID(ctx, job.ID); err != nil {
		return err
	}
	return s.jobs.Delete(ctx, job.ID)
}

func (s *Sweeper) deleteBlob(ctx context.Context, artifact *domain.Artifact) {
	if s.store == nil || artifact.StorageKey == "" {
		return
	}
	// Storage keys that are provider URLs were never copied into the store.
	if strings.Contains(artifact.StorageKey, "://") {
		return
	}
	if err := s.store.Delete(ctx, artifact.StorageKey); err != nil {
		s.logger.Warn().Err(err).
			Str("artifact_id", artifact.ID).
			Str("key", artifact.StorageKey).
			Msg("retention: delete blob failed")
	}
}
