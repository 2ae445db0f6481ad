package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the cookie browser sessions carry the JWT in.
const CookieName = "ekaya_jwt"

var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingProjectID     = errors.New("missing project ID in token")
	ErrProjectIDMismatch    = errors.New("project ID mismatch between token and URL")
)

// AuthService authenticates requests.
type AuthService interface {
	// ValidateRequest reads the JWT from the session cookie, falling back to
	// a Bearer Authorization header, and validates it.
	ValidateRequest(r *http.Request) (*Claims, error)

	// RequireProjectID checks that the claims name a project.
	RequireProjectID(claims *Claims) error

	// ValidateProjectIDMatch checks the URL project against the token.
	// An empty urlProjectID is not checked.
	ValidateProjectIDMatch(claims *Claims, urlProjectID string) error
}

type authService struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(validator TokenValidator, logger *zap.Logger) AuthService {
	return &authService{
		validator: validator,
		logger:    logger.Named("auth"),
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, error) {
	tokenString, source, err := extractToken(r)
	if err != nil {
		s.logger.Debug("No usable JWT in request",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, err
	}

	claims, err := s.validator.ValidateToken(r.Context(), tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", source))
		return nil, err
	}
	return claims, nil
}

func extractToken(r *http.Request) (token, source string, err error) {
	if cookie, cerr := r.Cookie(CookieName); cerr == nil && cookie.Value != "" {
		return cookie.Value, "cookie", nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", ErrMissingAuthorization
	}
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || value == "" || strings.Contains(value, " ") {
		return "", "", ErrInvalidAuthFormat
	}
	return value, "header", nil
}

func (s *authService) RequireProjectID(claims *Claims) error {
	if claims.ProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

func (s *authService) ValidateProjectIDMatch(claims *Claims, urlProjectID string) error {
	if urlProjectID != "" && claims.ProjectID != urlProjectID {
		s.logger.Warn("Project ID mismatch",
			zap.String("url_project_id", urlProjectID),
			zap.String("token_project_id", claims.ProjectID))
		return ErrProjectIDMismatch
	}
	return nil
}

var _ AuthService = (*authService)(nil)
