package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/aidesk/internal/dbx"
	"github.com/dmitrijs2005/aidesk/internal/server/repositories/admins"
	"github.com/dmitrijs2005/aidesk/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Admins(db dbx.DBTX) admins.Repository
	Users(db dbx.DBTX) users.Repository
}
