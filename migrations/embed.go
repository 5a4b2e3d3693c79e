// Package migrations holds the goose SQL migrations, embedded so the
// migrate binary carries its own schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
