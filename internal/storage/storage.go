package storage

import (
	"context"
	"time"
)

// BlobStore is the binary object store capability the worker depends on.
type BlobStore interface {
	// Put stores the bytes under key and returns the canonical key.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Presign returns a temporary access URL for the object and its expiry.
	Presign(ctx context.Context, key string) (string, time.Time, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
