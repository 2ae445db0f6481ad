// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSuspiciousCell is logged when libinjection flags an imported cell value.
	EventSuspiciousCell SecurityEventType = "suspicious_cell_value"
	// EventCredentialFailure is logged when datastore credentials cannot be decrypted.
	EventCredentialFailure SecurityEventType = "credential_decryption_failure"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ProjectID uuid.UUID         `json:"project_id"`
	BatchID   uuid.UUID         `json:"batch_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SuspiciousCellDetails identifies a flagged cell. The value is stored
// escaped in the target table; the event only reports where it came from.
type SuspiciousCellDetails struct {
	TableName   string `json:"table_name"`
	RowNumber   int    `json:"row_number"`
	Column      string `json:"column"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSuspiciousCell records a cell value that matched an injection pattern.
// Logged at WARN level: the value is escaped before insertion, so this is a
// signal for review rather than a blocked attack.
func (a *SecurityAuditor) LogSuspiciousCell(
	ctx context.Context,
	projectID, batchID uuid.UUID,
	details SuspiciousCellDetails,
) {
	userID := auth.GetUserIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSuspiciousCell,
		ProjectID: projectID,
		BatchID:   batchID,
		UserID:    userID,
		Details:   details,
		Severity:  "warning",
	}

	// Marshaling known types cannot fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Suspicious cell value in import",
		zap.String("event_json", string(eventJSON)),
		zap.String("project_id", projectID.String()),
		zap.String("batch_id", batchID.String()),
		zap.String("table_name", details.TableName),
		zap.Int("row_number", details.RowNumber),
		zap.String("column", details.Column),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}

// LogCredentialFailure records a failed decryption of project credentials.
// This is logged at ERROR level with "critical" severity: it means a wrong
// key or tampered ciphertext. The message never carries secret material.
func (a *SecurityAuditor) LogCredentialFailure(ctx context.Context, projectID uuid.UUID, reason string) {
	userID := auth.GetUserIDFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventCredentialFailure,
		ProjectID: projectID,
		UserID:    userID,
		Details: map[string]string{
			"reason": reason,
		},
		Severity: "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Datastore credential decryption failed",
		zap.String("event_json", string(eventJSON)),
		zap.String("project_id", projectID.String()),
		zap.String("reason", reason),
		zap.String("user_id", userID),
		zap.String("severity", "critical"),
	)
}
