package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

// multipartMemory is the part of an upload kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// uploadedFile is the "file" part of a multipart request.
type uploadedFile struct {
	File multipart.File
	Name string
	Size int64
}

// parseUpload reads a multipart form capped at maxBytes and opens its "file"
// part. On failure it writes the response and returns false. The caller
// closes the returned file.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64, logger *zap.Logger) (*uploadedFile, bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			if err := ErrorResponse(w, http.StatusRequestEntityTooLarge, "file_too_large",
				"Upload exceeds "+strconv.FormatInt(tooLarge.Limit>>20, 10)+" MB"); err != nil {
				logger.Error("Failed to write error response", zap.Error(err))
			}
			return nil, false
		}
		writeServiceError(w, apperrors.NewValidationError("file", "request must be multipart/form-data with a file field"), "", logger)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeServiceError(w, apperrors.NewValidationError("file", "file is required"), "", logger)
		return nil, false
	}
	return &uploadedFile{File: file, Name: header.Filename, Size: header.Size}, true
}

// formInt parses an optional integer form field. Empty means zero.
func formInt(r *http.Request, field string) (int, error) {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewValidationError(field, "%s must be a number, got %q", field, value)
	}
	return n, nil
}
