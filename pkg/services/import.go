package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/ingest"
	"github.com/ekaya-inc/ekaya-sheets/pkg/logging"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/repositories"
	"github.com/ekaya-inc/ekaya-sheets/pkg/retry"
	"github.com/ekaya-inc/ekaya-sheets/pkg/sheets"
)

// MaxSummaryErrors caps the error messages returned to the caller.
const MaxSummaryErrors = 10

// DefaultHistoryLimit is the number of batches listed when none is configured.
const DefaultHistoryLimit = 50

// ImportRequest is one uploaded file to load into the project's datastore.
type ImportRequest struct {
	ProjectID uuid.UUID
	UserID    string
	File      io.Reader
	FileName  string
	FileSize  int64
	// SheetName selects a worksheet; empty means the first one.
	SheetName string
	Mode      string
	// Month and Year tag the rows. Zero means derive them from the sheet or
	// file name, falling back to the current month.
	Month int
	Year  int
	// TableName overrides the project's configured table.
	TableName string
}

// ImportSummary is the outcome returned to the caller.
type ImportSummary struct {
	BatchID      uuid.UUID           `json:"batch_id"`
	Status       models.ImportStatus `json:"status"`
	Message      string              `json:"message"`
	TableName    string              `json:"table_name"`
	Mode         models.ImportMode   `json:"mode"`
	Month        int                 `json:"month"`
	Year         int                 `json:"year"`
	Strategy     string              `json:"strategy"`
	TotalRows    int                 `json:"total_rows"`
	ImportedRows int                 `json:"imported_rows"`
	FailedRows   int                 `json:"failed_rows"`
	// FailedSubBatches may exceed len(Errors), which is capped.
	FailedSubBatches int      `json:"failed_sub_batches"`
	DurationMs       int64    `json:"duration_ms"`
	Errors           []string `json:"errors"`
}

// ImportService runs spreadsheet imports and reads their history.
type ImportService interface {
	// Import loads the file. A missing target table returns
	// *apperrors.SchemaMissingError carrying the script that creates it.
	Import(ctx context.Context, req ImportRequest) (*ImportSummary, error)

	// ListImports returns the project's recent batches, newest first.
	ListImports(ctx context.Context, projectID uuid.UUID) ([]*models.ImportBatch, error)

	// GetImport returns one of the project's batches with its audit trail,
	// or apperrors.ErrNotFound.
	GetImport(ctx context.Context, projectID, batchID uuid.UUID) (*models.ImportDetail, error)
}

// ImportServiceConfig tunes the import service.
type ImportServiceConfig struct {
	HistoryLimit int
	// Retry applies to store connects and log writes. Nil uses retry.DefaultConfig.
	Retry *retry.Config
}

type importService struct {
	targets     repositories.ImportTargetRepository
	importLog   repositories.ImportLogRepository
	auditLog    repositories.AuditRepository
	resolver    CredentialResolver
	stores      datastore.StoreFactory
	transformer *ingest.Transformer
	engine      *ingest.Engine
	cfg         ImportServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewImportService creates an ImportService.
func NewImportService(
	targets repositories.ImportTargetRepository,
	importLog repositories.ImportLogRepository,
	auditLog repositories.AuditRepository,
	resolver CredentialResolver,
	stores datastore.StoreFactory,
	transformer *ingest.Transformer,
	engine *ingest.Engine,
	cfg ImportServiceConfig,
	logger *zap.Logger,
) ImportService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}
	return &importService{
		targets:     targets,
		importLog:   importLog,
		auditLog:    auditLog,
		resolver:    resolver,
		stores:      stores,
		transformer: transformer,
		engine:      engine,
		cfg:         cfg,
		logger:      logger.Named("import"),
		now:         time.Now,
	}
}

var _ ImportService = (*importService)(nil)

func (s *importService) Import(ctx context.Context, req ImportRequest) (summary *ImportSummary, err error) {
	mode, ok := models.ParseImportMode(req.Mode)
	if !ok {
		return nil, apperrors.NewValidationError("mode", "unknown import mode %q (expected append, replace_period or replace_all)", req.Mode)
	}
	if req.File == nil {
		return nil, apperrors.NewValidationError("file", "file is required")
	}

	sheet, err := sheets.ReadSheet(req.File, req.FileName, req.SheetName)
	if err != nil {
		return nil, err
	}
	table, err := sheets.DetectHeader(sheet)
	if err != nil {
		return nil, err
	}

	target, err := s.targets.GetByProject(ctx, req.ProjectID)
	switch {
	case errors.Is(err, apperrors.ErrNoImportTarget):
		// Projects without their own target route to the central store.
		target = &models.ImportTarget{ProjectID: req.ProjectID}
	case err != nil:
		return nil, fmt.Errorf("failed to load import target: %w", err)
	}

	tableName := firstNonEmpty(req.TableName, target.TableName, ingest.DefaultTableName(sheet.Name))
	if err := ingest.ValidateTableName(tableName); err != nil {
		return nil, err
	}

	month, year, err := s.period(req, sheet.Name)
	if err != nil {
		return nil, err
	}

	batch := models.NewImportBatch(req.ProjectID, req.FileName, req.FileSize)
	batch.UserID = req.UserID
	batch.SheetName = sheet.Name
	batch.TableName = tableName
	batch.Mode = mode
	batch.Month, batch.Year = month, year

	records, err := s.transformer.Transform(table, tableName, ingest.Meta{
		ProjectID:  req.ProjectID,
		BatchID:    batch.ID,
		Month:      month,
		Year:       year,
		ImportedAt: batch.StartedAt,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("sheet", "sheet %q has no data rows below the header", sheet.Name)
	}
	batch.TotalRows = len(records)

	run := &importRun{service: s, batch: batch}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Import panicked",
				zap.String("batch_id", batch.ID.String()),
				zap.Any("panic", r))
			run.fail(ctx, fmt.Sprintf("unexpected error: %v", r))
			summary, err = nil, &apperrors.FatalImportError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	return run.execute(ctx, target, s.transformer.Layout(tableName), records)
}

// importRun owns one batch from the moment it may touch the datastore.
// It writes the import log and audit entry at most once.
type importRun struct {
	service  *importService
	batch    *models.ImportBatch
	recorded bool
}

func (r *importRun) execute(ctx context.Context, target *models.ImportTarget, layout *ingest.Layout, records []ingest.Record) (*ImportSummary, error) {
	s := r.service
	batch := r.batch

	resolved, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		r.fail(ctx, err.Error())
		return nil, err
	}

	store, err := s.openStore(ctx, resolved.Config)
	if err != nil {
		r.fail(ctx, err.Error())
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			s.logger.Warn("Failed to close datastore", zap.Error(cerr))
		}
	}()

	result, err := s.engine.Run(ctx, store, batch, layout, records)
	if err != nil {
		reason := logging.SanitizeError(err)
		r.fail(ctx, reason)
		return nil, &apperrors.FatalImportError{Err: errors.New(reason)}
	}

	if result.SetupRequired {
		s.logger.Info("Import needs table setup",
			zap.String("batch_id", batch.ID.String()),
			zap.String("table", batch.TableName))
		s.writeAudit(ctx, batch, models.AuditActionSetupRequired)
		r.recorded = true
		return nil, &apperrors.SchemaMissingError{Table: batch.TableName, Script: result.SchemaScript}
	}

	r.record(ctx)
	return newSummary(batch), nil
}

// fail finalizes the batch as failed and records it.
func (r *importRun) fail(ctx context.Context, reason string) {
	r.batch.Fail(r.service.now(), reason)
	r.record(ctx)
}

func (r *importRun) record(ctx context.Context) {
	if r.recorded {
		return
	}
	r.recorded = true

	action := models.AuditActionImport
	if r.batch.Status == models.ImportStatusFailed {
		action = models.AuditActionImportFailed
	}
	r.service.writeLog(ctx, r.batch)
	r.service.writeAudit(ctx, r.batch, action)
}

// openStore connects to the target and verifies it, retrying transient failures.
func (s *importService) openStore(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
	var store datastore.Store
	err := retry.DoIfRetryable(ctx, s.cfg.Retry, func() error {
		st, err := s.stores.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if err := st.TestConnection(ctx); err != nil {
			_ = st.Close()
			return err
		}
		store = st
		return nil
	})
	if err != nil {
		reason := logging.SanitizeError(err, cfg.Secret)
		s.logger.Warn("Target datastore unreachable", zap.String("error", reason))
		return nil, &apperrors.ConfigurationError{
			Message:     "target datastore is unreachable: " + reason,
			Remediation: "Check the datastore address and credentials in the project's connection settings.",
		}
	}
	return store, nil
}

// writeLog persists the batch. The write survives request cancellation so a
// disconnecting client cannot leave a run unlogged.
func (s *importService) writeLog(ctx context.Context, batch *models.ImportBatch) {
	ctx = context.WithoutCancel(ctx)
	err := retry.Do(ctx, s.cfg.Retry, func() error {
		return s.importLog.Create(ctx, batch)
	})
	if err != nil {
		s.logger.Error("Failed to write import log",
			zap.String("batch_id", batch.ID.String()),
			zap.String("project_id", batch.ProjectID.String()),
			zap.Error(err))
	}
}

func (s *importService) writeAudit(ctx context.Context, batch *models.ImportBatch, action string) {
	ctx = context.WithoutCancel(ctx)
	entry := &models.AuditLogEntry{
		ID:         uuid.New(),
		ProjectID:  batch.ProjectID,
		EntityType: models.AuditEntityTypeImport,
		EntityID:   batch.ID,
		Action:     action,
		UserID:     batch.UserID,
		Metadata: models.JSONBMap{
			"file_name":     batch.FileName,
			"file_size":     batch.FileSize,
			"sheet_name":    batch.SheetName,
			"table_name":    batch.TableName,
			"mode":          string(batch.Mode),
			"period_month":  batch.Month,
			"period_year":   batch.Year,
			"status":        string(batch.Status),
			"strategy":      batch.Strategy,
			"total_rows":    batch.TotalRows,
			"imported_rows": batch.ImportedRows,
			"duration_ms":   batch.DurationMs,
		},
	}
	err := retry.Do(ctx, s.cfg.Retry, func() error {
		return s.auditLog.Create(ctx, entry)
	})
	if err != nil {
		s.logger.Error("Failed to write audit entry",
			zap.String("batch_id", batch.ID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

// period returns the month and year to tag rows with.
func (s *importService) period(req ImportRequest, sheetName string) (int, int, error) {
	if req.Month != 0 || req.Year != 0 {
		if req.Month < 1 || req.Month > 12 {
			return 0, 0, apperrors.NewValidationError("month", "month must be between 1 and 12, got %d", req.Month)
		}
		if req.Year < 1900 || req.Year > 2100 {
			return 0, 0, apperrors.NewValidationError("year", "year must be between 1900 and 2100, got %d", req.Year)
		}
		return req.Month, req.Year, nil
	}

	for _, name := range []string{sheetName, req.FileName} {
		if month, year, found := sheets.ExtractPeriod(name); found {
			return month, year, nil
		}
	}
	now := s.now()
	return int(now.Month()), now.Year(), nil
}

func (s *importService) ListImports(ctx context.Context, projectID uuid.UUID) ([]*models.ImportBatch, error) {
	batches, err := s.importLog.ListByProject(ctx, projectID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return batches, nil
}

func (s *importService) GetImport(ctx context.Context, projectID, batchID uuid.UUID) (*models.ImportDetail, error) {
	batch, err := s.importLog.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	if batch.ProjectID != projectID {
		return nil, apperrors.ErrNotFound
	}

	trail, err := s.auditLog.GetByEntity(ctx, models.AuditEntityTypeImport, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get import audit trail: %w", err)
	}
	if trail == nil {
		trail = []*models.AuditLogEntry{}
	}
	return &models.ImportDetail{ImportBatch: batch, AuditTrail: trail}, nil
}

func newSummary(batch *models.ImportBatch) *ImportSummary {
	errs := batch.Errors
	if len(errs) > MaxSummaryErrors {
		errs = errs[:MaxSummaryErrors]
	}
	return &ImportSummary{
		BatchID:          batch.ID,
		Status:           batch.Status,
		Message:          statusMessage(batch),
		TableName:        batch.TableName,
		Mode:             batch.Mode,
		Month:            batch.Month,
		Year:             batch.Year,
		Strategy:         batch.Strategy,
		TotalRows:        batch.TotalRows,
		ImportedRows:     batch.ImportedRows,
		FailedRows:       batch.FailedRows,
		FailedSubBatches: batch.FailedSubBatches,
		DurationMs:       batch.DurationMs,
		Errors:           errs,
	}
}

func statusMessage(batch *models.ImportBatch) string {
	switch batch.Status {
	case models.ImportStatusSuccess:
		return fmt.Sprintf("Imported %d of %d rows into %s", batch.ImportedRows, batch.TotalRows, batch.TableName)
	case models.ImportStatusPartial:
		return fmt.Sprintf("Imported %d of %d rows into %s; %d sub-batches failed",
			batch.ImportedRows, batch.TotalRows, batch.TableName, batch.FailedSubBatches)
	default:
		return fmt.Sprintf("Import into %s failed: no rows were imported", batch.TableName)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
