// Package pinning registers payloads with a content-addressed pinning
// backend and returns the resulting CID. Two backends exist: the Pinata
// HTTP API and a local pinner that derives the CID in process, used for
// development and tests.
package pinning

import (
	"context"

	"github.com/dmitrijs2005/chainvault/internal/server/models"
)

// Pinner is the pinning backend contract used by the upload pipeline.
type Pinner interface {
	// Pin registers the payload and returns its CID. The payload must
	// be non-empty.
	Pin(ctx context.Context, payload []byte, meta models.PinMetadata) (*models.PinResult, error)
}
