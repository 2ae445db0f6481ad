package mysql

import (
	"context"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func init() {
	datastore.Register(datastore.AdapterRegistration{
		Info: datastore.AdapterInfo{
			Type:        "mysql",
			DisplayName: "MySQL",
			Description: "Connect to MySQL 8+ or MariaDB",
			Schemes:     []string{"mysql"},
		},
		Factory: func(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
			return Open(ctx, cfg)
		},
	})
}
