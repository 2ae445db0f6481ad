// Package datastore abstracts the tenant datastores that imported rows are
// written to. Adapters register themselves from their own packages.
package datastore

import "context"

// Store is an open connection to one target datastore.
// Each implementation owns its connection and must be closed when done.
type Store interface {
	// TestConnection verifies the datastore is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// TableExists reports whether the target table has been provisioned.
	TableExists(ctx context.Context, table string) (bool, error)

	// InsertRows bulk-inserts rows using the datastore's structured insert call.
	// Each row holds one value per entry in columns. Either all rows are
	// written or none are.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// DeleteRows deletes rows whose columns equal every value in match.
	// An empty match deletes every row in the table.
	DeleteRows(ctx context.Context, table string, match map[string]any) (int64, error)

	// Dialect returns the SQL dialect used for scripts and literals.
	Dialect() Dialect

	// Close releases the connection.
	Close() error
}

// StatementExecutor is implemented by stores that can run arbitrary
// statements with elevated privileges.
type StatementExecutor interface {
	// SupportsStatements checks whether statement execution is actually
	// permitted for the current credentials.
	SupportsStatements(ctx context.Context) bool

	// Execute runs one statement without modification.
	Execute(ctx context.Context, statement string) (*ExecuteResult, error)
}

// ExecuteResult holds the outcome of a statement.
type ExecuteResult struct {
	RowsAffected int64 `json:"rows_affected"`
}

// Config identifies a target datastore and the secret used to reach it.
type Config struct {
	// Type is the registered adapter type. Empty means derive it from Address.
	Type    string
	Address string
	Secret  string
}
