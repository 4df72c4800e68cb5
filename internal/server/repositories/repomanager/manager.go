// Package repomanager vends repositories bound to a connection or a
// transaction and exposes them to the services as a Store with a unit of
// work.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authcore/internal/dbx"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/users"
)

// RepositoryManager builds repositories on top of any DBTX.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}

// Repositories is one consistent view of both stores: either the shared
// pool or a single open transaction.
type Repositories interface {
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
}

// TxFunc is a unit of work. It must only use the Repositories it is given.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store is what the services depend on. Writes made inside WithTx become
// visible all at once on success and not at all on error.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
}
