package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the lifecycle state of an import batch.
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusSuccess    ImportStatus = "success"
	ImportStatusPartial    ImportStatus = "partial"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusSuccess || s == ImportStatusPartial || s == ImportStatusFailed
}

// ImportMode controls which existing rows are removed before insertion.
type ImportMode string

const (
	ImportModeAppend        ImportMode = "append"
	ImportModeReplacePeriod ImportMode = "replace_period"
	ImportModeReplaceAll    ImportMode = "replace_all"
)

// ParseImportMode validates a mode string. Empty defaults to append.
func ParseImportMode(s string) (ImportMode, bool) {
	switch ImportMode(s) {
	case "":
		return ImportModeAppend, true
	case ImportModeAppend, ImportModeReplacePeriod, ImportModeReplaceAll:
		return ImportMode(s), true
	default:
		return "", false
	}
}

// Insert strategy names recorded on the batch.
const (
	StrategyDirectStatement  = "direct_statement"
	StrategyStructuredInsert = "structured_insert"
)

// MaxImportErrors caps the per-batch error list.
const MaxImportErrors = 20

// ImportBatch is one execution of the ingestion pipeline.
// Stored in engine_import_log table.
type ImportBatch struct {
	ID           uuid.UUID  `json:"batch_id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	UserID       string     `json:"user_id,omitempty"`
	FileName     string     `json:"file_name"`
	FileSize     int64      `json:"file_size"`
	SheetName    string     `json:"sheet_name,omitempty"`
	TableName    string     `json:"table_name"`
	Mode         ImportMode `json:"mode"`
	Month        int        `json:"month"`
	Year         int        `json:"year"`
	TotalRows    int        `json:"total_rows"`
	ImportedRows int        `json:"imported_rows"`
	FailedRows   int        `json:"failed_rows"`
	// FailedSubBatches counts every failed sub-batch; Errors keeps only the first MaxImportErrors.
	FailedSubBatches int          `json:"failed_sub_batches"`
	Errors           []string     `json:"errors"`
	Status           ImportStatus `json:"status"`
	Strategy         string       `json:"strategy,omitempty"`
	StartedAt        time.Time    `json:"started_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	DurationMs       int64        `json:"duration_ms"`
}

// ImportDetail is a batch together with the audit entries recorded for it.
type ImportDetail struct {
	*ImportBatch
	AuditTrail []*AuditLogEntry `json:"audit_trail"`
}

// NewImportBatch creates a batch in the processing state.
func NewImportBatch(projectID uuid.UUID, fileName string, fileSize int64) *ImportBatch {
	return &ImportBatch{
		ID:        uuid.New(),
		ProjectID: projectID,
		FileName:  fileName,
		FileSize:  fileSize,
		Mode:      ImportModeAppend,
		Errors:    []string{},
		Status:    ImportStatusProcessing,
		StartedAt: time.Now().UTC(),
	}
}

// AddError records an error message, dropping it once the list is full.
func (b *ImportBatch) AddError(msg string) {
	if len(b.Errors) >= MaxImportErrors {
		return
	}
	b.Errors = append(b.Errors, msg)
}

// RecordSubBatchFailure counts a failed sub-batch and records its message.
func (b *ImportBatch) RecordSubBatchFailure(msg string) {
	b.FailedSubBatches++
	b.AddError(msg)
}

// Finalize moves the batch to its terminal status. Calls after the first are no-ops.
// With no errors the batch succeeds; otherwise it is partial when any row was imported.
func (b *ImportBatch) Finalize(now time.Time) {
	if b.Status.IsTerminal() {
		return
	}
	switch {
	case len(b.Errors) == 0 && b.FailedSubBatches == 0:
		b.Status = ImportStatusSuccess
	case b.ImportedRows > 0:
		b.Status = ImportStatusPartial
	default:
		b.Status = ImportStatusFailed
	}
	b.FailedRows = b.TotalRows - b.ImportedRows
	b.complete(now)
}

// Fail moves the batch to failed with the given message, unless already terminal.
func (b *ImportBatch) Fail(now time.Time, msg string) {
	if b.Status.IsTerminal() {
		return
	}
	if msg != "" {
		b.AddError(msg)
	}
	b.Status = ImportStatusFailed
	b.FailedRows = b.TotalRows - b.ImportedRows
	b.complete(now)
}

func (b *ImportBatch) complete(now time.Time) {
	completed := now.UTC()
	b.CompletedAt = &completed
	b.DurationMs = completed.Sub(b.StartedAt).Milliseconds()
}
