// Package attest marks stored records as verified by anchoring their CID
// in an attestation backend. The shipped backend simulates an on-chain
// anchor by deriving a deterministic transaction hash from the CID.
package attest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DigestAlgorithm identifies the hash applied to the CID before anchoring.
const DigestAlgorithm = "sha256"

// Digest hashes the CID's UTF-8 bytes. The digest is computed over the
// CID string itself, not the payload; the CID already commits to content.
func Digest(cid string) []byte {
	sum := sha256.Sum256([]byte(cid))
	return sum[:]
}

// Attestor anchors a precomputed CID digest and returns the resulting
// transaction hash. Callers hash the CID themselves so that every
// backend receives byte-identical input for the same CID.
type Attestor interface {
	Attest(ctx context.Context, digest []byte) (string, error)
}

// SimulatedAttestor derives the transaction hash locally instead of
// submitting to a chain. The hash is stable for a given digest, so
// retried attestations of the same record produce the same result.
type SimulatedAttestor struct{}

func NewSimulatedAttestor() *SimulatedAttestor {
	return &SimulatedAttestor{}
}

func (a *SimulatedAttestor) Attest(ctx context.Context, digest []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := hex.EncodeToString(digest)
	if len(h) < 64 {
		return "", fmt.Errorf("digest too short: %d bytes", len(digest))
	}
	return "0x" + h[:64], nil
}
