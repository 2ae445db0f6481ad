// Package auth validates the JWTs that front-end sessions and API clients
// present to the sheets endpoints. Tokens are issued elsewhere and verified
// here against the issuer's JWKS.
package auth

import (
	"context"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// ClaimsKey is the context key for the validated JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the token payload. RegisteredClaims carries sub, iss, aud and exp.
type Claims struct {
	jwt.RegisteredClaims
	ProjectID string   `json:"pid,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// HasAnyRole reports whether the claims carry at least one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// GetClaims returns the claims stored by the middleware.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
