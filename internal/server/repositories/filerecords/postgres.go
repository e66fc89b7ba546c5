package filerecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/dbx"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// mapDBError translates driver failures into the shared error taxonomy.
// Class 23 (integrity constraint) errors are terminal; everything else is
// treated as store unavailability, retryable by the caller.
func mapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
		return fmt.Errorf("%w: %v", common.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
}

// Create inserts a new record with a generated id and verified=false.
// The database assigns created_at so that ordering by creation time is
// consistent even across server clock skew.
func (r *PostgresRepository) Create(ctx context.Context, ownerID, filename string, sizeBytes int64, mimeType, cid string) (*models.FileRecord, error) {
	query := `
		INSERT INTO file_records (id, owner_id, filename, size_bytes, mime_type, cid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;
	`
	record := &models.FileRecord{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Filename:  filename,
		SizeBytes: sizeBytes,
		MimeType:  mimeType,
		CID:       cid,
	}
	if err := r.db.QueryRowContext(ctx, query,
		record.ID, record.OwnerID, record.Filename, record.SizeBytes, record.MimeType, record.CID).
		Scan(&record.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	return record, nil
}

// MarkVerified flips the verified flag. The update matches the row whether
// or not it is already verified, so repeated calls succeed with no further
// effect. Zero rows affected means the record does not exist.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE file_records SET verified=TRUE WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapDBError(err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

const selectColumns = `id, owner_id, filename, size_bytes, mime_type, cid, created_at, verified`

func scanRecord(row *sql.Row) (*models.FileRecord, error) {
	record := &models.FileRecord{}
	err := row.Scan(&record.ID, &record.OwnerID, &record.Filename, &record.SizeBytes,
		&record.MimeType, &record.CID, &record.CreatedAt, &record.Verified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, mapDBError(err)
	}
	return record, nil
}

// GetByID returns the record with the given id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM file_records WHERE id=$1`
	return scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// GetByCid returns the most recently created record with the given CID.
// Duplicate uploads of identical content are legal, so the newest row wins.
func (r *PostgresRepository) GetByCid(ctx context.Context, cid string) (*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM file_records WHERE cid=$1 ORDER BY created_at DESC LIMIT 1`
	return scanRecord(r.db.QueryRowContext(ctx, query, cid))
}

// ListByOwner returns all records for ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM file_records WHERE owner_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		record := &models.FileRecord{}
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.Filename, &record.SizeBytes,
			&record.MimeType, &record.CID, &record.CreatedAt, &record.Verified); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the record. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM file_records WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapDBError(err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}
