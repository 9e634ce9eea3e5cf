package domain

import (
	"context"
	"encoding/json"
	"time"
)

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	GetByIDForUser(ctx context.Context, jobID, userID string) (*Job, error)
	ListByUser(ctx context.Context, userID string) ([]Job, error)

	// CountActiveByUser returns the number of the user's jobs whose status
	// is one of ActiveStatuses.
	CountActiveByUser(ctx context.Context, userID string) (int, error)

	// Start atomically moves the job to IN_PROGRESS if and only if its
	// current status is startable, and reports whether the transition was
	// performed. A false return with nil error means another invocation got
	// there first or the job is already terminal.
	Start(ctx context.Context, jobID string) (bool, error)

	Complete(ctx context.Context, jobID string, resultJSON json.RawMessage) error
	Fail(ctx context.Context, jobID, errMsg string) error

	// NextQueued returns the identifier of the oldest job awaiting
	// execution, or ErrNotFound when the queue is empty.
	NextQueued(ctx context.Context) (string, error)

	// ListTerminalBefore returns terminal jobs created before the cutoff.
	ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]Job, error)
	Delete(ctx context.Context, jobID string) error
}

// ArtifactRepository handles persistence for generated artifacts.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *Artifact) error
	ListByJobID(ctx context.Context, jobID string) ([]Artifact, error)
	DeleteByJobID(ctx context.Context, jobID string) error
}
