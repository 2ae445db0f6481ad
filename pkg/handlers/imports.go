package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/auth"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/services"
)

// TenantMiddleware binds a tenant-scoped database connection to the request.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// ListImportsResponse wraps the history array for frontend compatibility.
type ListImportsResponse struct {
	Imports []*models.ImportBatch `json:"imports"`
}

// ImportsHandler runs imports and serves their history.
type ImportsHandler struct {
	importService  services.ImportService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewImportsHandler creates an ImportsHandler.
func NewImportsHandler(importService services.ImportService, maxUploadBytes int64, logger *zap.Logger) *ImportsHandler {
	return &ImportsHandler{
		importService:  importService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the import routes. Running an import needs the
// admin or data role.
func (h *ImportsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/projects/{pid}/imports",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			auth.RequireRole(models.ImportRoles...)(tenantMiddleware(h.Create))))
	mux.HandleFunc("GET /api/projects/{pid}/imports",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.List)))
	mux.HandleFunc("GET /api/projects/{pid}/imports/{bid}",
		authMiddleware.RequireAuthWithPathValidation("pid")(tenantMiddleware(h.Get)))
}

// Create handles POST /api/projects/{pid}/imports
// Multipart fields: file (required), sheet, mode, month, year, table.
func (h *ImportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	upload, ok := parseUpload(w, r, h.maxUploadBytes, h.logger)
	if !ok {
		return
	}
	defer upload.File.Close()

	month, err := formInt(r, "month")
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}
	year, err := formInt(r, "year")
	if err != nil {
		writeServiceError(w, err, "", h.logger)
		return
	}

	summary, err := h.importService.Import(r.Context(), services.ImportRequest{
		ProjectID: projectID,
		UserID:    auth.GetUserIDFromContext(r.Context()),
		File:      upload.File,
		FileName:  upload.Name,
		FileSize:  upload.Size,
		SheetName: strings.TrimSpace(r.FormValue("sheet")),
		Mode:      strings.TrimSpace(r.FormValue("mode")),
		Month:     month,
		Year:      year,
		TableName: strings.TrimSpace(r.FormValue("table")),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to import spreadsheet", h.logger)
		return
	}

	response := ApiResponse{
		Success: summary.Status != models.ImportStatusFailed,
		Data:    summary,
		Message: summary.Message,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/imports
// Returns the project's recent import batches, newest first.
func (h *ImportsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	batches, err := h.importService.ListImports(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to list imports",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		writeServiceError(w, err, "Failed to list imports", h.logger)
		return
	}
	if batches == nil {
		batches = []*models.ImportBatch{}
	}

	response := ApiResponse{Success: true, Data: ListImportsResponse{Imports: batches}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{pid}/imports/{bid}
func (h *ImportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}
	batchID, ok := ParseBatchID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.importService.GetImport(r.Context(), projectID, batchID)
	if err != nil {
		writeServiceError(w, err, "Failed to get import", h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
