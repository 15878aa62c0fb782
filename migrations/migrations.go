// Package migrations embeds the SQL schema migrations so the orchestrator
// binary is self-contained on the hosts it manages.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
