// Package sqlite provides the SQLite datastore adapter. The server binary does
// not import it; tests register it for in-memory end-to-end runs.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

const driverName = "sqlite"

const tableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

// DSN converts a store address into a driver DSN. Accepted forms are
// "sqlite::memory:", "sqlite:///abs/path.db", "sqlite://rel.db" and "file:..." URIs.
func DSN(address string) (string, error) {
	address = strings.TrimSpace(address)
	switch {
	case strings.HasPrefix(address, "file:"):
		return address, nil
	case strings.HasPrefix(strings.ToLower(address), "sqlite:"):
		path := strings.TrimPrefix(address[len("sqlite:"):], "//")
		if path == "" {
			return "", fmt.Errorf("sqlite address has no path")
		}
		return path, nil
	default:
		return "", fmt.Errorf("not a sqlite address")
	}
}

// Open connects to a SQLite database.
func Open(ctx context.Context, cfg datastore.Config) (*datastore.SQLStore, error) {
	dsn, err := DSN(cfg.Address)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	return datastore.NewSQLStore(db, datastore.SQLiteDialect{}, tableExistsQuery), nil
}
