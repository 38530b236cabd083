package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
