// Package migrations embeds the goose migrations of the document backend.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
