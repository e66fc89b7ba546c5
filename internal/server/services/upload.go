// Package services implements the application operations: the upload
// pipeline, the public verification lookup, and owner file management.
// Services orchestrate repositories and external collaborators; they own
// no storage of their own.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/attest"
	"github.com/dmitrijs2005/chainvault/internal/server/blob"
	sc "github.com/dmitrijs2005/chainvault/internal/server/config"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
	"github.com/dmitrijs2005/chainvault/internal/server/pinning"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/repomanager"
)

// Stage names reported alongside per-file failures.
const (
	StageValidate = "validate"
	StageArchive  = "archive"
	StagePin      = "pin"
	StageRecord   = "record"
)

// UploadFile is one incoming file in an upload batch.
type UploadFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// UploadOutcome reports the result for one file. On success CID and
// FileRecordID are set; on failure Err and Stage are set instead.
type UploadOutcome struct {
	Filename     string
	CID          string
	FileRecordID string
	Stage        string
	Err          error
}

// attestQueue is the slice of attest.Driver the pipeline needs.
type attestQueue interface {
	AttestAsync(job attest.Job)
}

// UploadService runs the upload pipeline: archive the payload, pin it,
// record it, then hand it to the attestation queue.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	archiver    blob.Archiver
	pinner      pinning.Pinner
	queue       attestQueue
	logger      logging.Logger
}

func NewUploadService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	archiver blob.Archiver, pinner pinning.Pinner, queue attestQueue, logger logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		archiver:    archiver,
		pinner:      pinner,
		queue:       queue,
		logger:      logger,
	}
}

// runStage applies the configured per-stage deadline. A collaborator
// that outlives the deadline is reported as unavailable, same as one
// that fails outright.
func (s *UploadService) runStage(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	err := fn(sctx)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && !errors.Is(err, common.ErrUnavailable) {
		return fmt.Errorf("%w: stage deadline exceeded: %v", common.ErrUnavailable, err)
	}
	return err
}

// Upload processes files strictly in order. Each file passes through
// archive, pin and record stages before the attestation job is queued.
// The first failing file aborts the batch; files already recorded stay
// recorded and earlier stage outputs of the failed file are not rolled
// back.
//
// progress receives a percentage after every stage transition; the
// sequence is strictly increasing and ends at 100 only when every file
// succeeded.
func (s *UploadService) Upload(ctx context.Context, ownerID string, files []UploadFile, progress func(pct float64)) ([]UploadOutcome, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", common.ErrInvalidInput)
	}
	report := func(pct float64) {
		if progress != nil {
			progress(pct)
		}
	}

	n := float64(len(files))
	outcomes := make([]UploadOutcome, 0, len(files))

	for i, f := range files {
		fi := float64(i)

		if f.Filename == "" || len(f.Data) == 0 {
			outcomes = append(outcomes, UploadOutcome{
				Filename: f.Filename,
				Stage:    StageValidate,
				Err:      fmt.Errorf("%w: filename and payload must be non-empty", common.ErrInvalidInput),
			})
			break
		}
		if f.MimeType == "" {
			f.MimeType = common.OctetStreamMimeType
		}

		err := s.runStage(ctx, func(ctx context.Context) error {
			_, err := s.archiver.Write(ctx, ownerID, f.Filename, f.MimeType, bytes.NewReader(f.Data), int64(len(f.Data)))
			return err
		})
		if err != nil {
			outcomes = append(outcomes, UploadOutcome{Filename: f.Filename, Stage: StageArchive, Err: err})
			break
		}
		report((fi + 0.3) / n * 100)

		var pin *models.PinResult
		err = s.runStage(ctx, func(ctx context.Context) error {
			var err error
			pin, err = s.pinner.Pin(ctx, f.Data, models.PinMetadata{
				OwnerID:      ownerID,
				OriginalName: f.Filename,
				UploadedAt:   time.Now().UTC(),
			})
			return err
		})
		if err != nil {
			outcomes = append(outcomes, UploadOutcome{Filename: f.Filename, Stage: StagePin, Err: err})
			break
		}
		report((fi + 0.6) / n * 100)

		var record *models.FileRecord
		err = s.runStage(ctx, func(ctx context.Context) error {
			var err error
			record, err = s.repomanager.FileRecords(s.db).Create(ctx, ownerID, f.Filename, int64(len(f.Data)), f.MimeType, pin.CID)
			return err
		})
		if err != nil {
			outcomes = append(outcomes, UploadOutcome{Filename: f.Filename, Stage: StageRecord, Err: err})
			break
		}
		report((fi + 0.9) / n * 100)

		s.queue.AttestAsync(attest.Job{RecordID: record.ID, CID: record.CID})
		report((fi + 1) / n * 100)

		s.logger.Info(ctx, "file uploaded", "owner_id", ownerID, "filename", f.Filename, "cid", record.CID, "record_id", record.ID)
		outcomes = append(outcomes, UploadOutcome{Filename: f.Filename, CID: record.CID, FileRecordID: record.ID})
	}

	return outcomes, nil
}
