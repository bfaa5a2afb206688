package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// GeneratePresignedUploadURL creates a presigned URL for direct client upload.
	// key is the object path within the bucket (e.g., "uploads/{video_id}/original.mp4").
	GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Upload stores an object. Used by the worker for HLS segments and thumbnails.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download retrieves an object from the storage.
	// Caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object from the storage.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object under prefix and returns how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// ObjectURL returns the stable public URL of key. Unlike presigned URLs it
	// does not expire, so it is safe to embed in cached responses.
	ObjectURL(key string) string

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)
}
