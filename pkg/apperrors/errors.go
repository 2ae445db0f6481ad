package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNoImportTarget = errors.New("project has no import target configured")
)

// ValidationError reports bad caller input: missing file, empty sheet, no header row.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a target datastore that cannot be used as configured.
// Remediation is shown to the caller as-is.
type ConfigurationError struct {
	Message     string
	Remediation string
	Err         error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CredentialError reports a secret that could not be decrypted.
// The message never includes secret material.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return "failed to decrypt datastore credentials"
}

func (e *CredentialError) Unwrap() error { return e.Err }

// SchemaMissingError reports that the target table does not exist.
// Script is a ready-to-run statement that creates it.
type SchemaMissingError struct {
	Table  string
	Script string
}

func (e *SchemaMissingError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Table)
}

// FatalImportError wraps an unexpected failure that aborted an import run.
type FatalImportError struct {
	Err error
}

func (e *FatalImportError) Error() string {
	return fmt.Sprintf("import aborted: %v", e.Err)
}

func (e *FatalImportError) Unwrap() error { return e.Err }
