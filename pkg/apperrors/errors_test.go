package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialError_HidesCause(t *testing.T) {
	cause := errors.New("authentication failed for key s3cr3t")
	err := fmt.Errorf("resolve: %w", &CredentialError{Err: cause})

	var credErr *CredentialError
	assert.True(t, errors.As(err, &credErr))
	assert.NotContains(t, credErr.Error(), "s3cr3t")
	assert.ErrorIs(t, err, cause)
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "file: is required", NewValidationError("file", "is required").Error())
	assert.Equal(t, "no header row found", (&ValidationError{Message: "no header row found"}).Error())
}

func TestConfigurationError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ConfigurationError{Message: "datastore unreachable", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "datastore unreachable: dial tcp: refused", err.Error())
}
