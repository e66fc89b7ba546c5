// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileRecord is the authoritative persisted entity binding an owner, a
// content identifier, and verification status. A record exists only after
// both the blob write and the pin of its content succeeded.
type FileRecord struct {
	// ID is an opaque unique identifier generated at creation.
	ID string
	// OwnerID is the principal that uploaded the file.
	OwnerID string
	// Filename is the original name as submitted.
	Filename string
	// SizeBytes is the payload size.
	SizeBytes int64
	// MimeType is the declared or detected content type.
	MimeType string
	// CID is the content identifier assigned by the pinning network.
	// Duplicate uploads by the same owner produce distinct records with
	// the same CID.
	CID string
	// CreatedAt is the record insertion timestamp.
	CreatedAt time.Time
	// Verified transitions false→true exactly once when attestation
	// completes. It never reverts.
	Verified bool
}
