package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"weav/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository backed by PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, user_id, status, provider, model, arguments, store_result, external_job_id, error_message, result_json, created_at, updated_at`

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, user_id, status, provider, model, arguments, store_result, external_job_id, error_message, result_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.Status,
		job.Provider,
		job.Model,
		nullableBytes(job.Arguments),
		job.StoreResult,
		job.ExternalJobID,
		job.ErrorMessage,
		nullableBytes(job.ResultJSON),
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1;`, jobID)
	return scanJob(row)
}

// GetByIDForUser fetches a job scoped to its owner.
func (r *JobRepositoryPG) GetByIDForUser(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2;`, jobID, userID)
	return scanJob(row)
}

// ListByUser returns the user's jobs, newest first.
func (r *JobRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Job, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// CountActiveByUser counts the user's jobs in an active status.
func (r *JobRepositoryPG) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM jobs
WHERE user_id = $1 AND status = ANY($2);
`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID, statusStrings(domain.ActiveStatuses)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Start performs the conditional PENDING/IN_QUEUE -> IN_PROGRESS transition.
// The status predicate makes the claim atomic: redelivered or concurrent
// executions see zero rows affected and back off.
func (r *JobRepositoryPG) Start(ctx context.Context, jobID string) (bool, error) {
	query := `
UPDATE jobs
SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = ANY($3);
`
	tag, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusInProgress, statusStrings([]domain.JobStatus{domain.JobStatusPending, domain.JobStatusInQueue}))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Complete records the normalized result and moves the job to COMPLETED.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, resultJSON json.RawMessage) error {
	query := `
UPDATE jobs
SET status = $2, result_json = $3, updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusCompleted, nullableBytes(resultJSON))
	return err
}

// Fail records the error message and moves the job to FAILED.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID, errMsg string) error {
	query := `
UPDATE jobs
SET status = $2, error_message = $3, updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusFailed, errMsg)
	return err
}

// NextQueued returns the oldest job awaiting execution.
func (r *JobRepositoryPG) NextQueued(ctx context.Context) (string, error) {
	query := `
SELECT id
FROM jobs
WHERE status = ANY($1)
ORDER BY created_at ASC
LIMIT 1;
`
	var id string
	err := r.pool.QueryRow(ctx, query, statusStrings([]domain.JobStatus{domain.JobStatusPending, domain.JobStatusInQueue})).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

// ListTerminalBefore returns COMPLETED and FAILED jobs created before the cutoff.
func (r *JobRepositoryPG) ListTerminalBefore(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = ANY($1) AND created_at < $2
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, statusStrings(domain.TerminalStatuses), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// Delete removes a job record.
func (r *JobRepositoryPG) Delete(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, jobID)
	return err
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Status,
		&job.Provider,
		&job.Model,
		&job.Arguments,
		&job.StoreResult,
		&job.ExternalJobID,
		&job.ErrorMessage,
		&job.ResultJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func statusStrings(statuses []domain.JobStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
