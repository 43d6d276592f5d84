// Package migrations holds the metadata database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
