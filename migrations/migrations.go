// Package migrations embeds the SQL schema applied to every practice schema.
package migrations

import "embed"

// FS holds the numbered migration files.
//
//go:embed *.sql
var FS embed.FS
