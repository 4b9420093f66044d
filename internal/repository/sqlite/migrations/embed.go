// Package migrations owns the SQLite schema as ordered, embedded SQL files.
package migrations

import "embed"

// FS holds the migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
