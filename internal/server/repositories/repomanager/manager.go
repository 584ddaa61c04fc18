package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/csemotors/internal/dbx"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/inventory"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Inventory(db dbx.DBTX) inventory.Repository
}
