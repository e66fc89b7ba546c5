package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/chainvault/internal/dbx"
	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/attest"
	sc "github.com/dmitrijs2005/chainvault/internal/server/config"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/filerecords"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *sc.Config {
	return &sc.Config{StageTimeout: time.Second}
}

// stubRepo implements filerecords.Repository with injectable behavior.
type stubRepo struct {
	createFn       func(ctx context.Context, ownerID, filename string, sizeBytes int64, mimeType, cid string) (*models.FileRecord, error)
	markVerifiedFn func(ctx context.Context, id string) error
	getByIDFn      func(ctx context.Context, id string) (*models.FileRecord, error)
	getByCidFn     func(ctx context.Context, cid string) (*models.FileRecord, error)
	listByOwnerFn  func(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (s *stubRepo) Create(ctx context.Context, ownerID, filename string, sizeBytes int64, mimeType, cid string) (*models.FileRecord, error) {
	return s.createFn(ctx, ownerID, filename, sizeBytes, mimeType, cid)
}

func (s *stubRepo) MarkVerified(ctx context.Context, id string) error {
	return s.markVerifiedFn(ctx, id)
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubRepo) GetByCid(ctx context.Context, cid string) (*models.FileRecord, error) {
	return s.getByCidFn(ctx, cid)
}

func (s *stubRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.listByOwnerFn(ctx, ownerID)
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

// stubManager vends the stub repository regardless of the DBTX.
type stubManager struct {
	repo filerecords.Repository
}

func (m *stubManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *stubManager) FileRecords(db dbx.DBTX) filerecords.Repository { return m.repo }

// stubArchiver implements blob.Archiver with injectable behavior.
type stubArchiver struct {
	writeFn      func(ctx context.Context, ownerID, filename, mimeType string, body io.Reader, size int64) (string, error)
	readFn       func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn     func(ctx context.Context, key string) error
	resolveKeyFn func(ctx context.Context, ownerID, filename string) (string, error)
}

func (s *stubArchiver) Write(ctx context.Context, ownerID, filename, mimeType string, body io.Reader, size int64) (string, error) {
	return s.writeFn(ctx, ownerID, filename, mimeType, body, size)
}

func (s *stubArchiver) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.readFn(ctx, key)
}

func (s *stubArchiver) Delete(ctx context.Context, key string) error {
	return s.deleteFn(ctx, key)
}

func (s *stubArchiver) ResolveKey(ctx context.Context, ownerID, filename string) (string, error) {
	return s.resolveKeyFn(ctx, ownerID, filename)
}

// stubPinner implements pinning.Pinner with injectable behavior.
type stubPinner struct {
	pinFn func(ctx context.Context, payload []byte, meta models.PinMetadata) (*models.PinResult, error)
}

func (s *stubPinner) Pin(ctx context.Context, payload []byte, meta models.PinMetadata) (*models.PinResult, error) {
	return s.pinFn(ctx, payload, meta)
}

// stubQueue records queued attestation jobs.
type stubQueue struct {
	jobs []attest.Job
}

func (s *stubQueue) AttestAsync(job attest.Job) {
	s.jobs = append(s.jobs, job)
}

// stubCache implements verdictCache with injectable behavior.
type stubCache struct {
	getFn func(ctx context.Context, cid string) (*models.VerificationResult, error)
	setFn func(ctx context.Context, cid string, result *models.VerificationResult) error
	sets  int
}

func (s *stubCache) Get(ctx context.Context, cid string) (*models.VerificationResult, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, cid)
}

func (s *stubCache) Set(ctx context.Context, cid string, result *models.VerificationResult) error {
	s.sets++
	if s.setFn == nil {
		return nil
	}
	return s.setFn(ctx, cid, result)
}
