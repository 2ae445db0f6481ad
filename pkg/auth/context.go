package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetUserIDFromContext returns the token subject, or "" when unauthenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}

// GetProjectIDFromContext returns the token project, or uuid.Nil when it is
// missing or malformed.
func GetProjectIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil || claims.ProjectID == "" {
		return uuid.Nil
	}
	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil
	}
	return projectID
}

// RequireProjectIDFromContext is GetProjectIDFromContext for callers that
// cannot proceed without a project.
func RequireProjectIDFromContext(ctx context.Context) (uuid.UUID, error) {
	projectID := GetProjectIDFromContext(ctx)
	if projectID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("project ID not found in context")
	}
	return projectID, nil
}
