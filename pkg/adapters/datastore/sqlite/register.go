package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)

	datastore.Register(datastore.AdapterRegistration{
		Info: datastore.AdapterInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Description: "Local SQLite database file",
			Schemes:     []string{"sqlite", "file"},
		},
		Factory: func(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
			return Open(ctx, cfg)
		},
	})
}
