package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware wraps handlers with authentication checks.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates auth middleware backed by authService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger.Named("auth"),
	}
}

// RequireAuthWithPathValidation validates the JWT and requires its project to
// match the {pathParamName} path value. The claims are stored in the
// request context.
func (m *Middleware) RequireAuthWithPathValidation(pathParamName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.authService.ValidateRequest(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if err := m.authService.RequireProjectID(claims); err != nil {
				writeAuthError(w, http.StatusBadRequest, "bad_request", "Missing project ID in token")
				return
			}
			if err := m.authService.ValidateProjectIDMatch(claims, r.PathValue(pathParamName)); err != nil {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Project ID mismatch between token and URL")
				return
			}

			next(w, r.WithContext(WithClaims(r.Context(), claims)))
		}
	}
}

// RequireRole admits requests whose claims carry at least one of roles.
// It must run after the authentication middleware.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || !claims.HasAnyRole(roles...) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
