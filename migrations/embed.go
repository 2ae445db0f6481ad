// Package migrations holds the engine metadata schema.
package migrations

import "embed"

// FS contains the numbered up/down SQL files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
