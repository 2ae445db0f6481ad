package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/auth"
	"github.com/ekaya-inc/ekaya-sheets/pkg/services"
)

// AnalyzeHandler profiles uploaded spreadsheets.
type AnalyzeHandler struct {
	analyzeService services.AnalyzeService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler. Uploads above maxUploadBytes
// are rejected; zero disables the cap.
func NewAnalyzeHandler(analyzeService services.AnalyzeService, maxUploadBytes int64, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzeService: analyzeService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the analyze route. Analysis is read-only and needs
// no tenant connection.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects/{pid}/sheets/analyze",
		authMiddleware.RequireAuthWithPathValidation("pid")(h.Analyze))
}

// Analyze handles POST /api/projects/{pid}/sheets/analyze
// Multipart fields: file (required), sheet (optional).
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	upload, ok := parseUpload(w, r, h.maxUploadBytes, h.logger)
	if !ok {
		return
	}
	defer upload.File.Close()

	profile, err := h.analyzeService.Analyze(r.Context(), services.AnalyzeRequest{
		File:      upload.File,
		FileName:  upload.Name,
		SheetName: strings.TrimSpace(r.FormValue("sheet")),
	})
	if err != nil {
		h.logger.Info("Analyze rejected",
			zap.String("project_id", projectID.String()),
			zap.String("file_name", upload.Name),
			zap.Error(err))
		writeServiceError(w, err, "Failed to analyze spreadsheet", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: profile}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
