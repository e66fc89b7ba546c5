// Package blob owns durable payload storage. Payloads live in an
// S3-compatible object store under owner-scoped keys; records in the
// database reference them only indirectly through owner and filename.
package blob

import (
	"context"
	"io"
)

// Archiver is the blob storage contract used by the upload pipeline.
type Archiver interface {
	// Write stores the payload and returns the storage key it was
	// written under.
	Write(ctx context.Context, ownerID, filename, mimeType string, body io.Reader, size int64) (string, error)

	// Read opens the payload stored under key. The caller must close
	// the returned reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the payload stored under key.
	Delete(ctx context.Context, key string) error

	// ResolveKey finds the storage key for an owner's file by listing
	// the owner's prefix and matching on the filename.
	ResolveKey(ctx context.Context, ownerID, filename string) (string, error)
}
