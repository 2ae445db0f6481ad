package datastore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLStore is a Store over database/sql. Queries are written with '?'
// placeholders and rebound for the driver.
type SQLStore struct {
	db               *sqlx.DB
	dialect          Dialect
	tableExistsQuery string
}

// NewSQLStore wraps an open database handle. tableExistsQuery must return a
// single count and take the table name as its only parameter.
func NewSQLStore(db *sqlx.DB, dialect Dialect, tableExistsQuery string) *SQLStore {
	return &SQLStore{
		db:               db,
		dialect:          dialect,
		tableExistsQuery: tableExistsQuery,
	}
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) TestConnection(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

func (s *SQLStore) TableExists(ctx context.Context, table string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(s.tableExistsQuery), table); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// InsertRows writes rows in chunks that fit the dialect's parameter limit,
// inside one transaction.
func (s *SQLStore) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns to insert")
	}

	chunk := s.dialect.MaxParams() / len(columns)
	if chunk < 1 {
		chunk = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var inserted int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		part := rows[start:end]

		args := make([]any, 0, len(part)*len(columns))
		for i, row := range part {
			if len(row) != len(columns) {
				return 0, fmt.Errorf("row %d has %d values, expected %d", start+i, len(row), len(columns))
			}
			args = append(args, row...)
		}

		res, err := tx.ExecContext(ctx, InsertStatement(s.dialect, table, columns, len(part)), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert rows: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		} else {
			inserted += int64(len(part))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}
	return inserted, nil
}

func (s *SQLStore) DeleteRows(ctx context.Context, table string, match map[string]any) (int64, error) {
	query, args := deleteStatement(s.dialect, table, match)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SupportsStatements reports whether raw statements can be executed.
func (s *SQLStore) SupportsStatements(ctx context.Context) bool {
	_, err := s.db.ExecContext(ctx, "SELECT 1")
	return err == nil
}

func (s *SQLStore) Execute(ctx context.Context, statement string) (*ExecuteResult, error) {
	res, err := s.db.ExecContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &ExecuteResult{RowsAffected: affected}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// deleteStatement builds a DELETE with '?' placeholders. Match keys are
// sorted so the statement is stable.
func deleteStatement(d Dialect, table string, match map[string]any) (string, []any) {
	query := "DELETE FROM " + d.QuoteIdentifier(table)
	if len(match) == 0 {
		return query, nil
	}

	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = d.QuoteIdentifier(k) + " = ?"
		args[i] = match[k]
	}
	return query + " WHERE " + strings.Join(conds, " AND "), args
}

var (
	_ Store             = (*SQLStore)(nil)
	_ StatementExecutor = (*SQLStore)(nil)
)
