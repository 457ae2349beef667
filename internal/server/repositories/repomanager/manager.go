package repomanager

import (
	"context"
	"database/sql"

	"github.com/cryptovault/vaultd/internal/dbx"
	"github.com/cryptovault/vaultd/internal/server/repositories/records"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
}
