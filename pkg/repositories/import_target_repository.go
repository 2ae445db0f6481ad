package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/database"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

// ImportTargetRepository reads project import targets.
// Targets are managed by project configuration; imports never write them.
type ImportTargetRepository interface {
	// GetByProject returns the project's target, or apperrors.ErrNoImportTarget.
	GetByProject(ctx context.Context, projectID uuid.UUID) (*models.ImportTarget, error)
}

type importTargetRepository struct{}

// NewImportTargetRepository creates a new ImportTargetRepository.
func NewImportTargetRepository() ImportTargetRepository {
	return &importTargetRepository{}
}

var _ ImportTargetRepository = (*importTargetRepository)(nil)

func (r *importTargetRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.ImportTarget, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, database.ErrNoTenantScope
	}

	query := `
		SELECT project_id, store_type, address, encrypted_secret, table_name, updated_at
		FROM engine_import_targets
		WHERE project_id = $1`

	var t models.ImportTarget
	err := scope.Conn.QueryRow(ctx, query, projectID).Scan(
		&t.ProjectID,
		&t.StoreType,
		&t.Address,
		&t.EncryptedSecret,
		&t.TableName,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoImportTarget
		}
		return nil, fmt.Errorf("failed to get import target: %w", err)
	}
	return &t, nil
}
