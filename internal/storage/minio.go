package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements BlobStore against a MinIO (or any S3-compatible)
// endpoint.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// MinioOptions configures the MinIO-backed store.
type MinioOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	PresignTTL      time.Duration
}

// NewMinioStore connects to the configured endpoint.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create minio client: %w", err)
	}
	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MinioStore{client: client, bucket: opts.Bucket, presignTTL: ttl}, nil
}

// Put uploads the bytes under key.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: put object %q: %w", key, err)
	}
	return key, nil
}

// Presign returns a temporary GET URL for the object and its expiry.
func (s *MinioStore) Presign(ctx context.Context, key string) (string, time.Time, error) {
	expiry := time.Now().Add(s.presignTTL)
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("storage: presign %q: %w", key, err)
	}
	return url.String(), expiry, nil
}

// Delete removes the object.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: delete object %q: %w", key, err)
	}
	return nil
}
