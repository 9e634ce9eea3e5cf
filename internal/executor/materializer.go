package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"weav/internal/ai"
	"weav/internal/domain"
	"weav/internal/infra"
	"weav/internal/storage"
)

// maxArtifactBytes bounds how much of a provider result the worker will
// copy into the blob store.
const maxArtifactBytes = 512 << 20

// Materializer converts a normalized provider result into stored artifacts
// attached to the completed job. Current provider contracts yield zero or
// one artifact per job; the slice return leaves room for multi-artifact
// results without touching the job state machine.
type Materializer struct {
	artifacts  domain.ArtifactRepository
	store      storage.BlobStore
	downloader *http.Client
	logger     infra.Logger
}

// NewMaterializer constructs a materializer. store may be nil, in which
// case result URLs are recorded as-is and nothing is copied.
func NewMaterializer(artifacts domain.ArtifactRepository, store storage.BlobStore, logger infra.Logger) *Materializer {
	return &Materializer{
		artifacts: artifacts,
		store:     store,
		// Binary results can be large; downloads get a far longer budget
		// than the synchronous provider calls.
		downloader: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}
}

// Materialize records the result as artifacts. Text results become a single
// inline text artifact. URL results become one image/video/file artifact;
// when the job asked for its result to be stored, the bytes are copied into
// the blob store and a presigned URL recorded, otherwise the provider URL
// doubles as storage reference and access URL.
func (m *Materializer) Materialize(ctx context.Context, job *domain.Job, result *domain.GenerationResult, mediaType ai.MediaType) ([]domain.Artifact, error) {
	switch {
	case result.Text != "":
		artifact := domain.Artifact{
			ID:          uuid.NewString(),
			JobID:       job.ID,
			Kind:        domain.ArtifactKindText,
			TextContent: result.Text,
		}
		if err := m.artifacts.Create(ctx, &artifact); err != nil {
			return nil, fmt.Errorf("materialize text artifact: %w", err)
		}
		return []domain.Artifact{artifact}, nil

	case result.URL != "":
		kind := kindForMediaType(mediaType)
		artifact := domain.Artifact{
			ID:           uuid.NewString(),
			JobID:        job.ID,
			Kind:         kind,
			StorageKey:   result.URL,
			PresignedURL: result.URL,
			MIMEType:     result.MIMEType,
			SizeBytes:    result.SizeBytes,
		}
		if artifact.MIMEType == "" {
			artifact.MIMEType = defaultMIMEForKind(kind)
		}
		if job.StoreResult && m.store != nil {
			m.storeCopy(ctx, job.ID, result.URL, &artifact)
		}
		if err := m.artifacts.Create(ctx, &artifact); err != nil {
			return nil, fmt.Errorf("materialize %s artifact: %w", kind, err)
		}
		return []domain.Artifact{artifact}, nil
	}
	return nil, nil
}

// storeCopy downloads the result and rehomes it in the blob store. Failures
// are logged and the artifact keeps the provider URL, so a flaky copy never
// loses a completed job's result.
func (m *Materializer) storeCopy(ctx context.Context, jobID, url string, artifact *domain.Artifact) {
	data, contentType, err := m.download(ctx, url)
	if err != nil {
		m.logger.Warn().Err(err).Str("job_id", jobID).Msg("materializer: download result failed, keeping provider url")
		return
	}
	if contentType != "" {
		artifact.MIMEType = contentType
	}
	key := fmt.Sprintf("jobs/%s/%s-1%s", jobID, artifact.Kind, extensionForMIME(artifact.MIMEType))
	savedKey, err := m.store.Put(ctx, key, data, artifact.MIMEType)
	if err != nil {
		m.logger.Warn().Err(err).Str("job_id", jobID).Str("key", key).Msg("materializer: store result failed, keeping provider url")
		return
	}
	artifact.StorageKey = savedKey
	artifact.SizeBytes = int64(len(data))
	presigned, expiry, err := m.store.Presign(ctx, savedKey)
	if err != nil {
		m.logger.Warn().Err(err).Str("job_id", jobID).Str("key", savedKey).Msg("materializer: presign failed")
		return
	}
	artifact.PresignedURL = presigned
	artifact.PresignedURLExpiresAt = expiry
}

func (m *Materializer) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := m.downloader.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, "", fmt.Errorf("download: read body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func kindForMediaType(mediaType ai.MediaType) domain.ArtifactKind {
	switch mediaType {
	case ai.MediaTypeImage:
		return domain.ArtifactKindImage
	case ai.MediaTypeVideo:
		return domain.ArtifactKindVideo
	default:
		return domain.ArtifactKindFile
	}
}

func defaultMIMEForKind(kind domain.ArtifactKind) string {
	switch kind {
	case domain.ArtifactKindImage:
		return "image/png"
	case domain.ArtifactKindVideo:
		return "video/mp4"
	default:
		return ""
	}
}

func extensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
