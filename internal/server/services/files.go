package services

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/dbx"
	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/blob"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/repomanager"
)

// FileService covers owner-scoped file management: listing, download
// and deletion.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    blob.Archiver
	logger      logging.Logger
}

func NewFileService(db *sql.DB, repomanager repomanager.RepositoryManager, archiver blob.Archiver, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: repomanager, archiver: archiver, logger: logger}
}

// getOwned fetches the record and enforces ownership. Records owned by
// someone else report as not found rather than forbidden, so ids cannot
// be probed.
func (s *FileService) getOwned(ctx context.Context, ownerID, id string) (*models.FileRecord, error) {
	record, err := s.repomanager.FileRecords(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return record, nil
}

// ListFiles returns the owner's records, newest first.
func (s *FileService) ListFiles(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.repomanager.FileRecords(s.db).ListByOwner(ctx, ownerID)
}

// DownloadFile opens the stored payload for the given record. The
// caller must close the returned reader.
func (s *FileService) DownloadFile(ctx context.Context, ownerID, id string) (*models.FileRecord, io.ReadCloser, error) {
	record, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	key, err := s.archiver.ResolveKey(ctx, ownerID, record.Filename)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.archiver.Read(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return record, body, nil
}

// DeleteFile removes the record and, best effort, its stored payload.
// A payload that cannot be found or deleted does not block record
// removal; the blob store tolerates orphans.
func (s *FileService) DeleteFile(ctx context.Context, ownerID, id string) error {
	record, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	key, err := s.archiver.ResolveKey(ctx, ownerID, record.Filename)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "blob key resolution failed, deleting record anyway", "record_id", id, "error", err)
		}
	} else if err := s.archiver.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "blob deletion failed, deleting record anyway", "record_id", id, "key", key, "error", err)
	}

	// Re-check ownership and delete in one transaction so the record
	// cannot change hands between the check and the delete.
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.FileRecords(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.OwnerID != ownerID {
			return common.ErrNotFound
		}
		return repo.Delete(ctx, id)
	})
}
