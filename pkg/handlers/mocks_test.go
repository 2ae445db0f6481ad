package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/auth"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
	"github.com/ekaya-inc/ekaya-sheets/pkg/services"
)

type mockAnalyzeService struct {
	profile *models.TableProfile
	err     error

	got     services.AnalyzeRequest
	content string
}

func (m *mockAnalyzeService) Analyze(_ context.Context, req services.AnalyzeRequest) (*models.TableProfile, error) {
	m.got = req
	if req.File != nil {
		b, _ := io.ReadAll(req.File)
		m.content = string(b)
	}
	return m.profile, m.err
}

type mockImportService struct {
	summary *services.ImportSummary
	batches []*models.ImportBatch
	detail  *models.ImportDetail
	err     error

	got       services.ImportRequest
	listedFor uuid.UUID
}

func (m *mockImportService) Import(_ context.Context, req services.ImportRequest) (*services.ImportSummary, error) {
	m.got = req
	return m.summary, m.err
}

func (m *mockImportService) ListImports(_ context.Context, projectID uuid.UUID) ([]*models.ImportBatch, error) {
	m.listedFor = projectID
	return m.batches, m.err
}

func (m *mockImportService) GetImport(context.Context, uuid.UUID, uuid.UUID) (*models.ImportDetail, error) {
	return m.detail, m.err
}

// multipartRequest builds a POST with a "file" part and extra form fields.
// An empty fileName leaves the file part out.
func multipartRequest(t *testing.T, target, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// withProject sets the pid path value and the claims the auth middleware would.
func withProject(req *http.Request, projectID uuid.UUID, roles ...string) *http.Request {
	req.SetPathValue("pid", projectID.String())
	claims := &auth.Claims{ProjectID: projectID.String(), Roles: roles}
	claims.Subject = "user-1"
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// newTestAuthMiddleware parses tokens without verifying signatures.
func newTestAuthMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()
	client, err := auth.NewJWKSClient(context.Background(), &auth.JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	return auth.NewMiddleware(auth.NewAuthService(client, zap.NewNop()), zap.NewNop())
}

func noopTenantMiddleware(next http.HandlerFunc) http.HandlerFunc { return next }
