// Package mssql provides the SQL Server datastore adapter.
package mssql

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"github.com/microsoft/go-mssqldb/azuread"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
)

const driverName = "sqlserver"

const tableExistsQuery = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = ?`

// DSN prepares a "sqlserver://user@host:1433?database=db" address for the
// driver. A non-empty secret becomes the password, or the client secret when
// the address selects Azure AD authentication with fedauth.
// It returns the driver name to open the DSN with.
func DSN(address, secret string) (dsn, driver string, err error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return "", "", fmt.Errorf("invalid sqlserver address: %w", err)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("sqlserver address has no host")
	}

	u.Scheme = "sqlserver"
	host := config.ResolveHostForDocker(u.Hostname())
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}

	driver = driverName
	q := u.Query()
	if q.Get("fedauth") != "" {
		driver = azuread.DriverName
		if secret != "" {
			q.Set("password", secret)
		}
	} else if secret != "" {
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, secret)
	}
	u.RawQuery = q.Encode()
	return u.String(), driver, nil
}

// Open connects to a SQL Server database.
func Open(ctx context.Context, cfg datastore.Config) (*datastore.SQLStore, error) {
	dsn, driver, err := DSN(cfg.Address, cfg.Secret)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlserver: %w", err)
	}

	return datastore.NewSQLStore(db, datastore.SQLServerDialect{}, tableExistsQuery), nil
}
