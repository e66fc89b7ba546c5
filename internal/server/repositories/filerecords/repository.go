// Package filerecords owns persistence of FileRecord rows: creation,
// verification flag updates, and the query paths used by the upload
// pipeline and the public verification lookup.
package filerecords

import (
	"context"

	"github.com/dmitrijs2005/chainvault/internal/server/models"
)

// Repository is the record store contract. All operations touch a single
// row and are atomic; no multi-record transactions are required.
type Repository interface {
	// Create inserts a new record with verified=false and returns it.
	Create(ctx context.Context, ownerID, filename string, sizeBytes int64, mimeType, cid string) (*models.FileRecord, error)

	// MarkVerified flips verified to true. Idempotent: marking an
	// already-verified record succeeds without side effect.
	MarkVerified(ctx context.Context, id string) error

	// GetByID returns the record with the given id or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.FileRecord, error)

	// GetByCid returns the most recently created record with the given
	// CID, or common.ErrNotFound.
	GetByCid(ctx context.Context, cid string) (*models.FileRecord, error)

	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error)

	// Delete removes the record or returns common.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
