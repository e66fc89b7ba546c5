// Package common defines shared constants and sentinel errors used across
// ChainVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository- and collaborator-level errors.
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("collaborator unavailable")

	// Validation errors. Terminal; retrying without modification is pointless.
	ErrInvalidInput        = errors.New("invalid input")
	ErrConstraintViolation = errors.New("constraint violation")

	// Pinning-specific: the pinning service rejected the request because the
	// account is over quota. Retryable after the quota is freed.
	ErrQuotaExceeded = errors.New("pinning quota exceeded")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
