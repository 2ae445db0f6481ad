package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/testhelpers"
)

func TestAnalyzeHandler_Success(t *testing.T) {
	projectID := uuid.New()
	service := &mockAnalyzeService{profile: &models.TableProfile{SheetName: "Deals", TotalRows: 2, TotalColumns: 4}}
	handler := NewAnalyzeHandler(service, 1<<20, zap.NewNop())

	req := multipartRequest(t, "/api/projects/"+projectID.String()+"/sheets/analyze",
		"deals.csv", "a,b,c,d\n1,2,3,4\n", map[string]string{"sheet": " Deals "})
	req = withProject(req, projectID)
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deals.csv", service.got.FileName)
	assert.Equal(t, "Deals", service.got.SheetName)
	assert.Equal(t, "a,b,c,d\n1,2,3,4\n", service.content)

	var resp struct {
		Success bool                `json:"success"`
		Data    models.TableProfile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Deals", resp.Data.SheetName)
	assert.Equal(t, 4, resp.Data.TotalColumns)
}

func TestAnalyzeHandler_MissingFile(t *testing.T) {
	projectID := uuid.New()
	service := &mockAnalyzeService{}
	handler := NewAnalyzeHandler(service, 1<<20, zap.NewNop())

	req := withProject(multipartRequest(t, "/analyze", "", "", map[string]string{"sheet": "x"}), projectID)
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, "file", body.Field)
	assert.Nil(t, service.got.File, "service is not called")
}

func TestAnalyzeHandler_TooLarge(t *testing.T) {
	projectID := uuid.New()
	handler := NewAnalyzeHandler(&mockAnalyzeService{}, 1024, zap.NewNop())

	req := withProject(multipartRequest(t, "/analyze", "big.csv", strings.Repeat("x,", 4096), nil), projectID)
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeHandler_ServiceValidationError(t *testing.T) {
	projectID := uuid.New()
	service := &mockAnalyzeService{err: apperrors.NewValidationError("sheet", "no header row found")}
	handler := NewAnalyzeHandler(service, 1<<20, zap.NewNop())

	req := withProject(multipartRequest(t, "/analyze", "deals.csv", "a\n", nil), projectID)
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no header row found")
}

func TestAnalyzeHandler_RequiresMatchingProjectToken(t *testing.T) {
	projectID := uuid.New()
	mux := http.NewServeMux()
	NewAnalyzeHandler(&mockAnalyzeService{profile: &models.TableProfile{}}, 1<<20, zap.NewNop()).
		RegisterRoutes(mux, newTestAuthMiddleware(t))
	target := "/api/projects/" + projectID.String() + "/sheets/analyze"

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"other project", testhelpers.GenerateTestJWTWithBearer("user-1", uuid.NewString()), http.StatusForbidden},
		{"same project", testhelpers.GenerateTestJWTWithBearer("user-1", projectID.String()), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, target, "deals.csv", "a,b,c,d\n", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
