package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportTarget is a project's datastore configuration for imports.
// Owned by project configuration management; the import pipeline only reads it.
// Stored in engine_import_targets table.
type ImportTarget struct {
	ProjectID uuid.UUID `json:"project_id"`
	// StoreType names the datastore adapter. Empty derives it from Address.
	StoreType       string    `json:"store_type,omitempty"`
	Address         string    `json:"address"`
	EncryptedSecret string    `json:"-"`
	TableName       string    `json:"table_name"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasSecret reports whether the project carries its own encrypted secret.
func (t *ImportTarget) HasSecret() bool {
	return t != nil && t.EncryptedSecret != ""
}
