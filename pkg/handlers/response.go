package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

// ApiResponse wraps data in the format expected by the frontend.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorBody is the JSON body of a failed request. Only error and message are
// always present.
type ErrorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
	Remediation  string `json:"remediation,omitempty"`
	TableName    string `json:"table_name,omitempty"`
	SchemaScript string `json:"schema_script,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps an error returned by a service to a response.
// Unknown errors are logged and reported as internal with fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger *zap.Logger) {
	status, body := errorBody(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
	}
	if err := WriteJSON(w, status, body); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func errorBody(err error, fallback string) (int, ErrorBody) {
	var (
		validationErr *apperrors.ValidationError
		configErr     *apperrors.ConfigurationError
		credentialErr *apperrors.CredentialError
		schemaErr     *apperrors.SchemaMissingError
		fatalErr      *apperrors.FatalImportError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorBody{
			Error:   "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		}
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest, ErrorBody{
			Error:        "setup_required",
			Message:      "Target table " + schemaErr.Table + " does not exist. Run the schema script, then retry the import.",
			TableName:    schemaErr.Table,
			SchemaScript: schemaErr.Script,
		}
	case errors.As(err, &configErr):
		return http.StatusBadRequest, ErrorBody{
			Error:       "configuration_error",
			Message:     configErr.Error(),
			Remediation: configErr.Remediation,
		}
	case errors.As(err, &credentialErr):
		return http.StatusInternalServerError, ErrorBody{
			Error:   "credential_error",
			Message: credentialErr.Error(),
		}
	case errors.As(err, &fatalErr):
		return http.StatusInternalServerError, ErrorBody{
			Error:   "import_failed",
			Message: fatalErr.Error(),
		}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not_found", Message: "Resource not found"}
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Error: "forbidden", Message: "Insufficient permissions"}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal_error", Message: fallback}
	}
}
