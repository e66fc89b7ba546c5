package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/chainvault/internal/dbx"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/filerecords"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	FileRecords(db dbx.DBTX) filerecords.Repository
}
