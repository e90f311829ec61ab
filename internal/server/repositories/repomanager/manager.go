package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipkeeper/internal/dbx"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/wallets"
)

// RepositoryManager vends repositories bound to a DB handle or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Wallets(db dbx.DBTX) wallets.Repository
}
