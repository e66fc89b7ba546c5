package pinning

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
)

var localNow = func() time.Time { return time.Now().UTC() }

// LocalPinner derives a CIDv1 (raw codec, sha2-256) for the payload in
// process, without any remote pinning service. Identical payloads yield
// identical CIDs, matching what Pinata produces for cidVersion 1.
type LocalPinner struct{}

func NewLocalPinner() *LocalPinner {
	return &LocalPinner{}
}

func (p *LocalPinner) Pin(ctx context.Context, payload []byte, meta models.PinMetadata) (*models.PinResult, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", common.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	mh, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		return nil, err
	}
	c := cid.NewCidV1(cid.Raw, mh)
	return &models.PinResult{CID: c.String(), PinnedAt: localNow()}, nil
}
