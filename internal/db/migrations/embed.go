// Package migrations embeds the goose SQL migrations for the world node's
// two read-only tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
