package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoTenantScope is returned by repositories called outside a tenant scope.
var ErrNoTenantScope = errors.New("no tenant scope in context")

type contextKey string

const tenantScopeKey contextKey = "tenantScope"

// TenantScope is a pooled connection with app.current_project_id set, so
// row level security limits every statement to one project.
type TenantScope struct {
	Conn *pgxpool.Conn
}

// Close resets the tenant setting and releases the connection.
// It must be called so the setting cannot leak into the next request.
func (s *TenantScope) Close() {
	if s == nil || s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_project_id")
	s.Conn.Release()
}

// WithTenant acquires a connection bound to projectID.
func (db *DB) WithTenant(ctx context.Context, projectID uuid.UUID) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_project_id', $1, false)", projectID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &TenantScope{Conn: conn}, nil
}

// InTenant runs fn with a tenant scope for projectID in its context.
// An existing scope for the same context is replaced for the duration of fn.
func (db *DB) InTenant(ctx context.Context, projectID uuid.UUID, fn func(ctx context.Context) error) error {
	scope, err := db.WithTenant(ctx, projectID)
	if err != nil {
		return err
	}
	defer scope.Close()
	return fn(SetTenantScope(ctx, scope))
}

// GetTenantScope returns the scope stored in ctx.
func GetTenantScope(ctx context.Context) (*TenantScope, bool) {
	scope, ok := ctx.Value(tenantScopeKey).(*TenantScope)
	return scope, ok && scope != nil
}

// SetTenantScope stores scope in ctx.
func SetTenantScope(ctx context.Context, scope *TenantScope) context.Context {
	return context.WithValue(ctx, tenantScopeKey, scope)
}
