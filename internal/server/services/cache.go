package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/chainvault/internal/server/models"
)

const verifyKeyPrefix = "verify:"

// VerificationCache keeps recent verification verdicts in Redis so that
// public lookups for hot CIDs skip the database. Only positive verdicts
// are cached; a missing CID might appear at any moment via an upload.
type VerificationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVerificationCache(client *redis.Client, ttl time.Duration) *VerificationCache {
	return &VerificationCache{client: client, ttl: ttl}
}

// Get returns the cached verdict for cid, or (nil, nil) on a miss.
func (c *VerificationCache) Get(ctx context.Context, cid string) (*models.VerificationResult, error) {
	data, err := c.client.Get(ctx, verifyKeyPrefix+cid).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	result := &models.VerificationResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Set stores a verdict under the configured TTL.
func (c *VerificationCache) Set(ctx context.Context, cid string, result *models.VerificationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, verifyKeyPrefix+cid, data, c.ttl).Err()
}

// Invalidate drops the cached verdict for cid. The attestation worker
// calls this after flipping the verified flag so stale unverified
// verdicts do not linger for the full TTL.
func (c *VerificationCache) Invalidate(ctx context.Context, cid string) error {
	return c.client.Del(ctx, verifyKeyPrefix+cid).Err()
}
