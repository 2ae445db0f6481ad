package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/database"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

// ImportLogRepository stores one row per finished import batch.
type ImportLogRepository interface {
	// Create writes a batch. Batches are written once and never updated.
	Create(ctx context.Context, batch *models.ImportBatch) error

	// GetByID returns a batch, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, batchID uuid.UUID) (*models.ImportBatch, error)

	// ListByProject returns a project's most recent batches, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.ImportBatch, error)
}

type importLogRepository struct{}

// NewImportLogRepository creates a new ImportLogRepository.
func NewImportLogRepository() ImportLogRepository {
	return &importLogRepository{}
}

var _ ImportLogRepository = (*importLogRepository)(nil)

const importLogColumns = `id, project_id, user_id, file_name, file_size, sheet_name, table_name, mode,
	period_month, period_year, total_rows, imported_rows, failed_rows, failed_sub_batches, errors, status, strategy,
	started_at, completed_at, duration_ms`

func (r *importLogRepository) Create(ctx context.Context, batch *models.ImportBatch) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return database.ErrNoTenantScope
	}

	errs := batch.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to marshal import errors: %w", err)
	}

	query := `
		INSERT INTO engine_import_log (` + importLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO NOTHING`

	_, err = scope.Conn.Exec(ctx, query,
		batch.ID,
		batch.ProjectID,
		batch.UserID,
		batch.FileName,
		batch.FileSize,
		batch.SheetName,
		batch.TableName,
		string(batch.Mode),
		batch.Month,
		batch.Year,
		batch.TotalRows,
		batch.ImportedRows,
		batch.FailedRows,
		batch.FailedSubBatches,
		errorsJSON,
		string(batch.Status),
		batch.Strategy,
		batch.StartedAt,
		batch.CompletedAt,
		batch.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create import log entry: %w", err)
	}
	return nil
}

func (r *importLogRepository) GetByID(ctx context.Context, batchID uuid.UUID) (*models.ImportBatch, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, database.ErrNoTenantScope
	}

	query := `SELECT ` + importLogColumns + ` FROM engine_import_log WHERE id = $1`
	batch, err := scanImportBatch(scope.Conn.QueryRow(ctx, query, batchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	return batch, err
}

func (r *importLogRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.ImportBatch, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, database.ErrNoTenantScope
	}

	query := `
		SELECT ` + importLogColumns + `
		FROM engine_import_log
		WHERE project_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import log: %w", err)
	}
	defer rows.Close()

	batches := []*models.ImportBatch{}
	for rows.Next() {
		batch, err := scanImportBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import log: %w", err)
	}
	return batches, nil
}

func scanImportBatch(row pgx.Row) (*models.ImportBatch, error) {
	var b models.ImportBatch
	var mode, status string
	var errorsJSON []byte

	err := row.Scan(
		&b.ID,
		&b.ProjectID,
		&b.UserID,
		&b.FileName,
		&b.FileSize,
		&b.SheetName,
		&b.TableName,
		&mode,
		&b.Month,
		&b.Year,
		&b.TotalRows,
		&b.ImportedRows,
		&b.FailedRows,
		&b.FailedSubBatches,
		&errorsJSON,
		&status,
		&b.Strategy,
		&b.StartedAt,
		&b.CompletedAt,
		&b.DurationMs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan import log entry: %w", err)
	}

	b.Mode = models.ImportMode(mode)
	b.Status = models.ImportStatus(status)
	b.Errors = []string{}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &b.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal import errors: %w", err)
		}
	}
	return &b, nil
}
