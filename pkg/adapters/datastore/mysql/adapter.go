// Package mysql provides the MySQL datastore adapter.
package mysql

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
)

const (
	driverName  = "mysql"
	defaultPort = "3306"
)

const tableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`

// DSN converts "mysql://user@host:3306/db?tls=true" into a driver DSN.
// A non-empty secret replaces any password in the address.
func DSN(address, secret string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return "", fmt.Errorf("invalid mysql address: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("mysql address has no host")
	}

	c := mysql.NewConfig()
	if u.User != nil {
		c.User = u.User.Username()
		if p, ok := u.User.Password(); ok {
			c.Passwd = p
		}
	}
	if secret != "" {
		c.Passwd = secret
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(config.ResolveHostForDocker(u.Hostname()), port)
	c.DBName = strings.TrimPrefix(u.Path, "/")
	c.ParseTime = true
	if tls := u.Query().Get("tls"); tls != "" {
		c.TLSConfig = tls
	}
	return c.FormatDSN(), nil
}

// Open connects to a MySQL database.
func Open(ctx context.Context, cfg datastore.Config) (*datastore.SQLStore, error) {
	dsn, err := DSN(cfg.Address, cfg.Secret)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}

	return datastore.NewSQLStore(db, datastore.MySQLDialect{}, tableExistsQuery), nil
}
