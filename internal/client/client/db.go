package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/authcore/internal/client/migrations"
	"github.com/dmitrijs2005/authcore/internal/filex"
	_ "modernc.org/sqlite"
)

// OpenSessionDB opens (creating if needed) the SQLite session cache at
// path and applies its migrations.
func OpenSessionDB(ctx context.Context, path string) (*sql.DB, error) {
	dsn, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, fmt.Errorf("session cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session cache: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate session cache: %w", err)
	}
	return db, nil
}
