package mssql

import (
	"context"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func init() {
	datastore.Register(datastore.AdapterRegistration{
		Info: datastore.AdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2016+ or Azure SQL",
			Schemes:     []string{"sqlserver", "mssql"},
		},
		Factory: func(ctx context.Context, cfg datastore.Config) (datastore.Store, error) {
			return Open(ctx, cfg)
		},
	})
}
