package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntityTypeImport marks entries whose entity is an import batch.
const AuditEntityTypeImport = "import"

// AuditAction represents the type of action being audited.
const (
	AuditActionImport        = "import"
	AuditActionImportFailed  = "import_failed"
	AuditActionSetupRequired = "import_setup_required"
)

// AuditLogEntry represents a single entry in the audit trail.
// Stored in engine_audit_log table.
type AuditLogEntry struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"project_id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"` // batch id for imports
	Action     string    `json:"action"`
	UserID     string    `json:"user_id,omitempty"`

	// File metadata and outcome: file_name, file_size, table, mode, status, imported, total.
	Metadata JSONBMap `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
