package postgres

import (
	"context"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func init() {
	datastore.Register(datastore.AdapterRegistration{
		Info: datastore.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
			Schemes:     []string{"postgres", "postgresql"},
		},
		Factory: func(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
			return NewAdapter(ctx, cfg)
		},
	})
}
