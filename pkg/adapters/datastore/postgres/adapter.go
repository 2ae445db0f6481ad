// Package postgres provides the PostgreSQL datastore adapter.
package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
)

const tableExistsQuery = `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`

// Adapter provides PostgreSQL connectivity.
type Adapter struct {
	pool    *pgxpool.Pool
	dialect datastore.PostgresDialect
}

// buildConnectionString applies the secret as password and resolves
// localhost when running in Docker. sslmode defaults to require.
func buildConnectionString(address, secret string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return "", fmt.Errorf("invalid postgres address: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("postgres address has no host")
	}

	u.Scheme = "postgresql"
	host := config.ResolveHostForDocker(u.Hostname())
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}

	if secret != "" {
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, secret)
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewAdapter connects to a PostgreSQL database.
func NewAdapter(ctx context.Context, cfg datastore.Config) (*Adapter, error) {
	connStr, err := buildConnectionString(cfg.Address, cfg.Secret)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

func (a *Adapter) Dialect() datastore.Dialect {
	return a.dialect
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var result int
	if err := a.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

func (a *Adapter) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := a.pool.QueryRow(ctx, tableExistsQuery, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

// InsertRows writes rows with multi-row INSERT statements inside one transaction.
func (a *Adapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to insert")
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	chunk := max(a.dialect.MaxParams()/len(columns), 1)
	var inserted int64
	for start := 0; start < len(rows); start += chunk {
		part := rows[start:min(start+chunk, len(rows))]

		args := make([]any, 0, len(part)*len(columns))
		for i, row := range part {
			if len(row) != len(columns) {
				return 0, fmt.Errorf("row %d has %d values, expected %d", start+i, len(row), len(columns))
			}
			for _, v := range row {
				args = append(args, normalizeArg(v))
			}
		}

		tag, err := tx.Exec(ctx, datastore.InsertStatement(a.dialect, table, columns, len(part)), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert rows: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}
	return inserted, nil
}

func (a *Adapter) DeleteRows(ctx context.Context, table string, match map[string]any) (int64, error) {
	query := "DELETE FROM " + a.dialect.QuoteIdentifier(table)

	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, len(keys))
	conds := make([]string, len(keys))
	for i, k := range keys {
		conds[i] = fmt.Sprintf("%s = %s", a.dialect.QuoteIdentifier(k), a.dialect.Placeholder(i+1))
		args[i] = normalizeArg(match[k])
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	tag, err := a.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SupportsStatements reports whether raw statements can be executed.
func (a *Adapter) SupportsStatements(ctx context.Context) bool {
	_, err := a.pool.Exec(ctx, "SELECT 1")
	return err == nil
}

// Execute runs a statement without parameters.
func (a *Adapter) Execute(ctx context.Context, statement string) (*datastore.ExecuteResult, error) {
	tag, err := a.pool.Exec(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return &datastore.ExecuteResult{RowsAffected: tag.RowsAffected()}, nil
}

// Close releases the pool.
func (a *Adapter) Close() error {
	a.pool.Close()
	return nil
}

// normalizeArg resolves driver.Valuer values so pgx sends them as plain
// text parameters.
func normalizeArg(v any) any {
	valuer, ok := v.(driver.Valuer)
	if !ok {
		return v
	}
	resolved, err := valuer.Value()
	if err != nil {
		return v
	}
	return resolved
}

var (
	_ datastore.Store             = (*Adapter)(nil)
	_ datastore.StatementExecutor = (*Adapter)(nil)
)
