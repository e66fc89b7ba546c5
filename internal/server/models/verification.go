package models

import "time"

// VerificationResult is the verdict of a CID lookup. Found=false means the
// query succeeded and no matching record exists; collaborator failures are
// reported as errors, never as a NotFound verdict.
type VerificationResult struct {
	Found     bool      `json:"found"`
	Filename  string    `json:"filename,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Verified  bool      `json:"verified"`
}
