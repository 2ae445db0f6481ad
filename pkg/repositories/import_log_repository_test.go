//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/testhelpers"
)

func setupImportLogTest(t *testing.T) (*testhelpers.EngineDB, uuid.UUID) {
	engineDB := testhelpers.GetEngineDB(t)
	projectID := uuid.MustParse("00000000-0000-0000-0000-000000000080")
	t.Cleanup(func() {
		_, err := engineDB.Admin.Exec(context.Background(),
			"DELETE FROM engine_import_log WHERE project_id = $1", projectID)
		if err != nil {
			t.Errorf("failed to cleanup import log: %v", err)
		}
	})
	return engineDB, projectID
}

func finishedBatch(projectID uuid.UUID, startedAt time.Time) *models.ImportBatch {
	batch := models.NewImportBatch(projectID, "march.xlsx", 2048)
	batch.UserID = "user-1"
	batch.SheetName = "Март 2024"
	batch.TableName = "sales"
	batch.Mode = models.ImportModeReplacePeriod
	batch.Month, batch.Year = 3, 2024
	batch.Strategy = models.StrategyStructuredInsert
	batch.StartedAt = startedAt
	batch.TotalRows = 250
	batch.ImportedRows = 150
	batch.RecordSubBatchFailure("sub-batch 2 (rows 101-200): connection reset by peer")
	batch.Finalize(startedAt.Add(1500 * time.Millisecond))
	return batch
}

func TestImportLogRepository_CreateAndGet(t *testing.T) {
	engineDB, projectID := setupImportLogTest(t)
	repo := NewImportLogRepository()
	ctx, done := engineDB.TenantContext(t, projectID)
	defer done()

	batch := finishedBatch(projectID, time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, batch))

	got, err := repo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusPartial, got.Status)
	assert.Equal(t, models.ImportModeReplacePeriod, got.Mode)
	assert.Equal(t, "Март 2024", got.SheetName)
	assert.Equal(t, 150, got.ImportedRows)
	assert.Equal(t, 100, got.FailedRows)
	assert.Equal(t, 1, got.FailedSubBatches)
	assert.Equal(t, []string{"sub-batch 2 (rows 101-200): connection reset by peer"}, got.Errors)
	assert.Equal(t, int64(1500), got.DurationMs)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, batch.CompletedAt.Equal(*got.CompletedAt))
}

func TestImportLogRepository_CreateIsWriteOnce(t *testing.T) {
	engineDB, projectID := setupImportLogTest(t)
	repo := NewImportLogRepository()
	ctx, done := engineDB.TenantContext(t, projectID)
	defer done()

	batch := finishedBatch(projectID, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, batch))

	batch.ImportedRows = 0
	require.NoError(t, repo.Create(ctx, batch), "a retried write must not fail")

	got, err := repo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, got.ImportedRows)
}

func TestImportLogRepository_ListByProject(t *testing.T) {
	engineDB, projectID := setupImportLogTest(t)
	repo := NewImportLogRepository()
	ctx, done := engineDB.TenantContext(t, projectID)
	defer done()

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		batch := finishedBatch(projectID, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, batch))
		ids = append(ids, batch.ID)
	}

	batches, err := repo.ListByProject(ctx, projectID, 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, ids[2], batches[0].ID)
	assert.Equal(t, ids[1], batches[1].ID)
}

func TestImportLogRepository_GetByIDNotFound(t *testing.T) {
	engineDB, projectID := setupImportLogTest(t)
	repo := NewImportLogRepository()
	ctx, done := engineDB.TenantContext(t, projectID)
	defer done()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
