package models

import "time"

// PinMetadata is attached to a pin request as auxiliary, queryable tags on
// the pinning side. It does not affect the CID.
type PinMetadata struct {
	OwnerID      string
	OriginalName string
	UploadedAt   time.Time
}

// PinResult is the transient outcome of a pin operation, consumed
// immediately to construct a FileRecord. It is not persisted on its own.
type PinResult struct {
	CID      string
	PinnedAt time.Time
}
