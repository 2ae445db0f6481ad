package rest

import (
	"context"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func init() {
	datastore.Register(datastore.AdapterRegistration{
		Info: datastore.AdapterInfo{
			Type:        "rest",
			DisplayName: "REST (PostgREST / Supabase)",
			Description: "Write through a PostgREST-compatible HTTP API with a service key",
			Schemes:     []string{"https", "http"},
		},
		Factory: func(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
			return NewAdapter(cfg, nil)
		},
	})
}
