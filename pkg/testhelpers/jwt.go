// Package testhelpers provides shared fixtures for ekaya-sheets tests.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// GenerateTestJWT creates an unsigned token (alg: none) for use when
// verification is disabled. It carries the subject, project and roles.
func GenerateTestJWT(sub, projectID string, roles ...string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	claims := map[string]any{"sub": sub, "aud": "engine"}
	if projectID != "" {
		claims["pid"] = projectID
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	payload, _ := json.Marshal(claims)

	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString(payload))
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix.
func GenerateTestJWTWithBearer(sub, projectID string, roles ...string) string {
	return "Bearer " + GenerateTestJWT(sub, projectID, roles...)
}
