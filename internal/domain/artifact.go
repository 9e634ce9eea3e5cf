package domain

import "time"

// ArtifactKind enumerates artifact content categories.
type ArtifactKind string

const (
	ArtifactKindText  ArtifactKind = "text"
	ArtifactKindImage ArtifactKind = "image"
	ArtifactKindVideo ArtifactKind = "video"
	ArtifactKindFile  ArtifactKind = "file"
)

// Artifact is a stored output produced by a completed job. Exactly one of
// TextContent and StorageKey is populated.
type Artifact struct {
	ID                    string
	JobID                 string
	Kind                  ArtifactKind
	StorageKey            string
	TextContent           string
	MIMEType              string
	SizeBytes             int64
	PresignedURL          string
	PresignedURLExpiresAt time.Time
	CreatedAt             time.Time
}

// PresignedURLValid reports whether the stored presigned URL may still be
// handed out at the given instant. Validity is derived from the expiry on
// every call, never cached.
func (a *Artifact) PresignedURLValid(now time.Time) bool {
	if a.PresignedURL == "" || a.PresignedURLExpiresAt.IsZero() {
		return false
	}
	return now.Before(a.PresignedURLExpiresAt)
}
