package filerecords

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var selectRe = `SELECT id, owner_id, filename, size_bytes, mime_type, cid, created_at, verified FROM file_records`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q := `(?s)^\s*INSERT\s+INTO\s+file_records\b.*RETURNING\s+created_at;?\s*$`

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u1", "report.pdf", int64(12345), "application/pdf", "bafy1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	got, err := repo.Create(context.Background(), "u1", "report.pdf", 12345, "application/pdf", "bafy1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected generated id")
	}
	if got.Verified {
		t.Fatal("new record must not be verified")
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("bad created_at: %v", got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_ConstraintViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+file_records\b`
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u1", "report.pdf", int64(-1), "application/pdf", "bafy1").
		WillReturnError(&pgconn.PgError{Code: "23514", Message: "size check"})

	_, err := repo.Create(context.Background(), "u1", "report.pdf", -1, "application/pdf", "bafy1")
	if !errors.Is(err, common.ErrConstraintViolation) {
		t.Fatalf("want ErrConstraintViolation, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+file_records\b`
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u1", "report.pdf", int64(1), "application/pdf", "bafy1").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "u1", "report.pdf", 1, "application/pdf", "bafy1")
	if !errors.Is(err, common.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestMarkVerified_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE file_records SET verified=TRUE WHERE id=\$1`)
	mock.ExpectExec(q.String()).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkVerified(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkVerified_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE file_records SET verified=TRUE WHERE id=\$1`)
	// An already-verified row still matches the WHERE clause, so the second
	// call also affects one row and succeeds.
	mock.ExpectExec(q.String()).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q.String()).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkVerified(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if err := repo.MarkVerified(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
}

func TestMarkVerified_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE file_records SET verified=TRUE WHERE id=\$1`)
	mock.ExpectExec(q.String()).
		WithArgs("no-such-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkVerified(context.Background(), "no-such-id")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkVerified_DBErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE file_records SET verified=TRUE WHERE id=\$1`)
	mock.ExpectExec(q.String()).
		WithArgs("r1").
		WillReturnError(errors.New("db err"))

	err := repo.MarkVerified(context.Background(), "r1")
	if !errors.Is(err, common.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestGetByCid_ReturnsNewestMatch(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(selectRe + ` WHERE cid=\$1 ORDER BY created_at DESC LIMIT 1`)
	createdAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "size_bytes", "mime_type", "cid", "created_at", "verified"}).
		AddRow("r2", "u1", "report.pdf", int64(12345), "application/pdf", "bafy1", createdAt, true)

	mock.ExpectQuery(q.String()).
		WithArgs("bafy1").
		WillReturnRows(rows)

	got, err := repo.GetByCid(context.Background(), "bafy1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "r2" || !got.Verified || got.SizeBytes != 12345 {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGetByCid_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(selectRe + ` WHERE cid=\$1 ORDER BY created_at DESC LIMIT 1`)
	mock.ExpectQuery(q.String()).
		WithArgs("nonexistent-cid").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCid(context.Background(), "nonexistent-cid")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByID_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(selectRe + ` WHERE id=\$1`)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "size_bytes", "mime_type", "cid", "created_at", "verified"}).
		AddRow("r1", "u1", "a.txt", int64(3), "text/plain", "bafy2", time.Now(), false)

	mock.ExpectQuery(q.String()).
		WithArgs("r1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OwnerID != "u1" || got.CID != "bafy2" || got.Verified {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestListByOwner_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(selectRe + ` WHERE owner_id=\$1 ORDER BY created_at DESC`)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "size_bytes", "mime_type", "cid", "created_at", "verified"}).
		AddRow("r2", "u1", "b.txt", int64(2), "text/plain", "bafy2", time.Now(), true).
		AddRow("r1", "u1", "a.txt", int64(1), "text/plain", "bafy1", time.Now().Add(-time.Hour), false)

	mock.ExpectQuery(q.String()).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("bad ordering: %+v", got)
	}
}

func TestListByOwner_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(selectRe + ` WHERE owner_id=\$1 ORDER BY created_at DESC`)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "size_bytes", "mime_type", "cid", "created_at", "verified"})

	mock.ExpectQuery(q.String()).
		WithArgs("u2").
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no rows, got %d", len(got))
	}
}

func TestDelete_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`DELETE FROM file_records WHERE id=\$1`)
	mock.ExpectExec(q.String()).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`DELETE FROM file_records WHERE id=\$1`)
	mock.ExpectExec(q.String()).
		WithArgs("no-such-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "no-such-id")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
