package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

func TestErrorResponse_OmitsOptionalFields(t *testing.T) {
	w := httptest.NewRecorder()

	if err := ErrorResponse(w, http.StatusRequestEntityTooLarge, "file_too_large", "Upload exceeds 25 MB"); err != nil {
		t.Fatalf("ErrorResponse returned error: %v", err)
	}

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(body) != 2 || body["error"] != "file_too_large" || body["message"] != "Upload exceeds 25 MB" {
		t.Errorf("body = %v, want only error and message", body)
	}
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		data    any
		wantErr bool
	}{
		{"ok", http.StatusOK, ApiResponse{Success: true, Data: []string{"a"}}, false},
		{"created", http.StatusCreated, ApiResponse{Success: true}, false},
		{"unencodable", http.StatusOK, make(chan int), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			err := WriteJSON(w, tt.status, tt.data)

			if (err != nil) != tt.wantErr {
				t.Fatalf("WriteJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && w.Code != tt.status {
				t.Errorf("status code = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		check      func(t *testing.T, body ErrorBody)
	}{
		{
			name:       "validation",
			err:        apperrors.NewValidationError("sheet", "no header row"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			check: func(t *testing.T, body ErrorBody) {
				if body.Field != "sheet" || body.Message != "no header row" {
					t.Errorf("unexpected body %+v", body)
				}
			},
		},
		{
			name:       "configuration",
			err:        &apperrors.ConfigurationError{Message: "no credentials", Remediation: "add an API key"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "configuration_error",
			check: func(t *testing.T, body ErrorBody) {
				if body.Remediation != "add an API key" {
					t.Errorf("remediation = %q", body.Remediation)
				}
			},
		},
		{
			name:       "schema missing",
			err:        &apperrors.SchemaMissingError{Table: "sales", Script: "CREATE TABLE sales ();"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "setup_required",
			check: func(t *testing.T, body ErrorBody) {
				if body.TableName != "sales" || body.SchemaScript != "CREATE TABLE sales ();" {
					t.Errorf("unexpected body %+v", body)
				}
			},
		},
		{
			name:       "credential",
			err:        &apperrors.CredentialError{Err: errors.New("cipher: message authentication failed")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "credential_error",
			check: func(t *testing.T, body ErrorBody) {
				if strings.Contains(body.Message, "cipher") {
					t.Errorf("message leaks cause: %q", body.Message)
				}
			},
		},
		{
			name:       "fatal",
			err:        &apperrors.FatalImportError{Err: errors.New("panic: boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "import_failed",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("lookup: %w", apperrors.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "unknown",
			err:        errors.New("pool closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			check: func(t *testing.T, body ErrorBody) {
				if body.Message != "Failed to do things" {
					t.Errorf("message = %q", body.Message)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeServiceError(w, tt.err, "Failed to do things", zap.NewNop())

			if w.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", body.Error, tt.wantCode)
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}
