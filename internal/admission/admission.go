// Package admission gates job creation on the user's current number of
// active jobs.
package admission

import (
	"context"
	"fmt"

	"weav/internal/domain"
)

// DefaultMaxConcurrentJobs is the per-user cap applied when none is configured.
const DefaultMaxConcurrentJobs = 4

// ReasonMaxConcurrentJobs is the machine-readable denial reason.
const ReasonMaxConcurrentJobs = "max_concurrent_jobs"

// LimitError is returned when a user is at or above the concurrency cap.
// The boundary layer surfaces it as a rate-limit response.
type LimitError struct {
	Reason string
	Limit  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: at most %d jobs may be active at once", e.Reason, e.Limit)
}

// Controller checks submissions against the per-user concurrency limit. It
// only reads aggregate counts; it never owns job state.
type Controller struct {
	jobs  domain.JobRepository
	limit int
}

// NewController builds a controller over the job repository. A non-positive
// limit falls back to DefaultMaxConcurrentJobs.
func NewController(jobs domain.JobRepository, limit int) *Controller {
	if limit <= 0 {
		limit = DefaultMaxConcurrentJobs
	}
	return &Controller{jobs: jobs, limit: limit}
}

// Limit returns the configured cap.
func (c *Controller) Limit() int {
	return c.limit
}

// Admit allows the submission unless the user already has limit active
// jobs. The count-then-create sequence is not atomic against concurrent
// submissions from the same user; a small overshoot under racing submits is
// accepted rather than serializing all admissions.
func (c *Controller) Admit(ctx context.Context, userID string) error {
	active, err := c.jobs.CountActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("admission: count active jobs: %w", err)
	}
	if active >= c.limit {
		return &LimitError{Reason: ReasonMaxConcurrentJobs, Limit: c.limit}
	}
	return nil
}
