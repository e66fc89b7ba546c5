package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/repomanager"
)

// verdictCache is the slice of VerificationCache the lookup needs.
// A nil cache disables caching entirely.
type verdictCache interface {
	Get(ctx context.Context, cid string) (*models.VerificationResult, error)
	Set(ctx context.Context, cid string, result *models.VerificationResult) error
}

// VerificationService answers the public question "is this CID known
// and verified". It never requires authentication.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       verdictCache
	logger      logging.Logger
}

func NewVerificationService(db *sql.DB, repomanager repomanager.RepositoryManager, cache verdictCache, logger logging.Logger) *VerificationService {
	return &VerificationService{db: db, repomanager: repomanager, cache: cache, logger: logger}
}

// Verify looks up the most recent record for cid. An unknown CID is a
// successful negative answer, not an error; only store unavailability
// surfaces as an error. Positive verdicts pass through the cache; cache
// failures degrade silently to direct reads.
func (s *VerificationService) Verify(ctx context.Context, cid string) (*models.VerificationResult, error) {
	if cid == "" {
		return nil, common.ErrInvalidInput
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cid)
		if err != nil {
			s.logger.Warn(ctx, "verification cache read failed", "cid", cid, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	record, err := s.repomanager.FileRecords(s.db).GetByCid(ctx, cid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &models.VerificationResult{Found: false}, nil
		}
		return nil, err
	}

	result := &models.VerificationResult{
		Found:     true,
		Filename:  record.Filename,
		SizeBytes: record.SizeBytes,
		CreatedAt: record.CreatedAt,
		Verified:  record.Verified,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cid, result); err != nil {
			s.logger.Warn(ctx, "verification cache write failed", "cid", cid, "error", err)
		}
	}
	return result, nil
}
