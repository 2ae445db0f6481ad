package ingest

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

// Default sub-batch sizes per strategy.
const (
	DefaultDirectBatchSize     = 100
	DefaultStructuredBatchSize = 500
)

// Inserter writes one sub-batch of rows to a target table.
type Inserter interface {
	Strategy() string
	BatchSize() int
	Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// directInserter inlines escaped literals into one INSERT per sub-batch and
// runs it through the store's statement capability.
type directInserter struct {
	exec      datastore.StatementExecutor
	dialect   datastore.Dialect
	batchSize int
}

func (i *directInserter) Strategy() string { return models.StrategyDirectStatement }
func (i *directInserter) BatchSize() int   { return i.batchSize }

func (i *directInserter) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	stmt, err := InsertLiteralStatement(i.dialect, table, columns, rows)
	if err != nil {
		return 0, err
	}
	res, err := i.exec.Execute(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected > 0 {
		return res.RowsAffected, nil
	}
	return int64(len(rows)), nil
}

// structuredInserter uses the store's bulk insert call.
type structuredInserter struct {
	store     datastore.Store
	batchSize int
}

func (i *structuredInserter) Strategy() string { return models.StrategyStructuredInsert }
func (i *structuredInserter) BatchSize() int   { return i.batchSize }

func (i *structuredInserter) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return i.store.InsertRows(ctx, table, columns, rows)
}

// SelectInserter checks the store once and picks the strategy for the run.
func SelectInserter(ctx context.Context, store datastore.Store, cfg EngineConfig) Inserter {
	if exec, ok := store.(datastore.StatementExecutor); ok && exec.SupportsStatements(ctx) {
		return &directInserter{exec: exec, dialect: store.Dialect(), batchSize: cfg.DirectBatchSize}
	}
	return &structuredInserter{store: store, batchSize: cfg.StructuredBatchSize}
}

func (c EngineConfig) validate() error {
	if c.DirectBatchSize <= 0 || c.StructuredBatchSize <= 0 {
		return fmt.Errorf("batch sizes must be positive (direct=%d, structured=%d)", c.DirectBatchSize, c.StructuredBatchSize)
	}
	return nil
}
