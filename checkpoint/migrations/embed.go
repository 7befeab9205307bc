package migrations

import "embed"

// FS contains the embedded checkpoint store migrations.
//
//go:embed *.sql
var FS embed.FS
