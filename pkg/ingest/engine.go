package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/audit"
	"github.com/ekaya-inc/ekaya-sheets/pkg/logging"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	sqlcheck "github.com/ekaya-inc/ekaya-sheets/pkg/sql"
)

// MaxSuspiciousCellEvents caps the security events logged per run.
const MaxSuspiciousCellEvents = 50

// EngineConfig holds the sub-batch sizes per strategy.
type EngineConfig struct {
	DirectBatchSize     int
	StructuredBatchSize int
}

// DefaultEngineConfig returns the production batch sizes.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DirectBatchSize:     DefaultDirectBatchSize,
		StructuredBatchSize: DefaultStructuredBatchSize,
	}
}

// Result describes what a run did beyond the counters kept on the batch.
type Result struct {
	// SetupRequired is set when the target table does not exist; nothing
	// was written and SchemaScript holds the statement to create it.
	SetupRequired   bool
	SchemaScript    string
	Strategy        string
	SubBatches      int
	DeletedRows     int64
	SuspiciousCells int
}

// Engine loads records into a target store in sequential sub-batches.
type Engine struct {
	cfg     EngineConfig
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine creates an engine. Zero batch sizes fall back to the defaults.
func NewEngine(cfg EngineConfig, auditor *audit.SecurityAuditor, logger *zap.Logger) *Engine {
	def := DefaultEngineConfig()
	if cfg.DirectBatchSize <= 0 {
		cfg.DirectBatchSize = def.DirectBatchSize
	}
	if cfg.StructuredBatchSize <= 0 {
		cfg.StructuredBatchSize = def.StructuredBatchSize
	}
	return &Engine{
		cfg:     cfg,
		auditor: auditor,
		logger:  logger.Named("ingest"),
		now:     time.Now,
	}
}

// Run imports records into batch.TableName and finalizes the batch.
//
// A missing table yields a Result with SetupRequired and leaves the batch
// untouched. A failing sub-batch is recorded on the batch and the run moves
// on to the next one. Errors are returned only for failures that stop the
// run as a whole; the batch is not finalized in that case.
func (e *Engine) Run(ctx context.Context, store datastore.Store, batch *models.ImportBatch, layout *Layout, records []Record) (*Result, error) {
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}

	exists, err := store.TableExists(ctx, batch.TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to check target table: %s", logging.SanitizeError(err))
	}
	if !exists {
		e.logger.Info("Target table missing, setup required",
			zap.String("project_id", batch.ProjectID.String()),
			zap.String("table", batch.TableName))
		return &Result{
			SetupRequired: true,
			SchemaScript:  SchemaScript(store.Dialect(), batch.TableName, layout),
		}, nil
	}

	inserter := SelectInserter(ctx, store, e.cfg)
	batch.Strategy = inserter.Strategy()
	batch.TotalRows = len(records)
	result := &Result{Strategy: inserter.Strategy()}

	deleted, err := e.applyMode(ctx, store, batch)
	if err != nil {
		return nil, err
	}
	result.DeletedRows = deleted

	if inserter.Strategy() == models.StrategyDirectStatement {
		result.SuspiciousCells = e.screen(ctx, batch, records)
	}

	columns := ColumnNames(layout)
	size := inserter.BatchSize()
	for start, n := 0, 1; start < len(records); start, n = start+size, n+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+size, len(records))
		result.SubBatches++

		inserted, err := e.insertSubBatch(ctx, inserter, batch.TableName, columns, records[start:end])
		if err != nil {
			reason := logging.SanitizeError(err)
			batch.RecordSubBatchFailure(fmt.Sprintf("sub-batch %d (rows %d-%d): %s", n, start+1, end, reason))
			e.logger.Warn("Sub-batch failed",
				zap.String("batch_id", batch.ID.String()),
				zap.Int("sub_batch", n),
				zap.String("error", reason))
			continue
		}
		batch.ImportedRows += int(inserted)
	}

	batch.Finalize(e.now())
	e.logger.Info("Import finished",
		zap.String("batch_id", batch.ID.String()),
		zap.String("project_id", batch.ProjectID.String()),
		zap.String("table", batch.TableName),
		zap.String("strategy", batch.Strategy),
		zap.String("status", string(batch.Status)),
		zap.Int("imported_rows", batch.ImportedRows),
		zap.Int("total_rows", batch.TotalRows),
		zap.Int("sub_batches", result.SubBatches))
	return result, nil
}

func (e *Engine) insertSubBatch(ctx context.Context, inserter Inserter, table string, columns []string, records []Record) (int64, error) {
	rows := make([][]any, len(records))
	for i, rec := range records {
		values, err := rec.Values(columns)
		if err != nil {
			return 0, err
		}
		rows[i] = values
	}
	return inserter.Insert(ctx, table, columns, rows)
}

// applyMode deletes the rows the import mode replaces. Deletes are scoped to
// the batch's project.
func (e *Engine) applyMode(ctx context.Context, store datastore.Store, batch *models.ImportBatch) (int64, error) {
	match := map[string]any{ColumnProjectID: batch.ProjectID.String()}
	switch batch.Mode {
	case models.ImportModeAppend, "":
		return 0, nil
	case models.ImportModeReplacePeriod:
		match[ColumnPeriodMonth] = batch.Month
		match[ColumnPeriodYear] = batch.Year
	case models.ImportModeReplaceAll:
	default:
		return 0, fmt.Errorf("unknown import mode %q", batch.Mode)
	}

	deleted, err := store.DeleteRows(ctx, batch.TableName, match)
	if err != nil {
		return 0, fmt.Errorf("failed to apply %s: %s", batch.Mode, logging.SanitizeError(err))
	}
	e.logger.Info("Removed rows before import",
		zap.String("batch_id", batch.ID.String()),
		zap.String("mode", string(batch.Mode)),
		zap.Int64("deleted_rows", deleted))
	return deleted, nil
}

// screen reports cells that look like SQL injection. Flagged cells are
// still inserted as escaped literals.
func (e *Engine) screen(ctx context.Context, batch *models.ImportBatch, records []Record) int {
	flagged := 0
	for _, rec := range records {
		for _, hit := range sqlcheck.CheckRow(rec.Data) {
			flagged++
			if e.auditor != nil && flagged <= MaxSuspiciousCellEvents {
				e.auditor.LogSuspiciousCell(ctx, batch.ProjectID, batch.ID, audit.SuspiciousCellDetails{
					TableName:   batch.TableName,
					RowNumber:   rec.RowNumber,
					Column:      hit.Column,
					Fingerprint: hit.Fingerprint,
				})
			}
		}
	}
	return flagged
}
