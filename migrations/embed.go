// Package migrations embeds the catalog schema so the binary can apply it at
// startup.
package migrations

import "embed"

// FS holds every *.up.sql file, applied in lexical order.
//
//go:embed *.up.sql
var FS embed.FS
