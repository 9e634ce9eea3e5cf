package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"weav/internal/domain"
)

// ArtifactRepositoryPG implements domain.ArtifactRepository using PostgreSQL.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository constructs a new artifact repository instance.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

// Create persists one artifact.
func (r *ArtifactRepositoryPG) Create(ctx context.Context, artifact *domain.Artifact) error {
	query := `
INSERT INTO artifacts (id, job_id, kind, storage_key, text_content, mime_type, size_bytes, presigned_url, presigned_url_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		artifact.ID,
		artifact.JobID,
		artifact.Kind,
		artifact.StorageKey,
		artifact.TextContent,
		artifact.MIMEType,
		artifact.SizeBytes,
		artifact.PresignedURL,
		nullableTime(artifact.PresignedURLExpiresAt),
	)
	return err
}

// ListByJobID returns all artifacts belonging to the job.
func (r *ArtifactRepositoryPG) ListByJobID(ctx context.Context, jobID string) ([]domain.Artifact, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, job_id, kind, storage_key, text_content, mime_type, size_bytes, presigned_url, COALESCE(presigned_url_expires_at, 'epoch'::timestamptz), created_at
FROM artifacts
WHERE job_id = $1
ORDER BY created_at ASC;
`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		if err := rows.Scan(
			&a.ID,
			&a.JobID,
			&a.Kind,
			&a.StorageKey,
			&a.TextContent,
			&a.MIMEType,
			&a.SizeBytes,
			&a.PresignedURL,
			&a.PresignedURLExpiresAt,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// DeleteByJobID removes every artifact belonging to the job.
func (r *ArtifactRepositoryPG) DeleteByJobID(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM artifacts WHERE job_id = $1;`, jobID)
	return err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
