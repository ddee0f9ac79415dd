// Package migrations embeds the SQL schema migrations so the server, the
// migrate CLI and the integration tests apply the same files.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
