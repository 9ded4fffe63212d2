// Package migrations embeds the SQL migration files so the goose
// programmatic API can apply them in tests and at server startup.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to a goose.Provider instead of relying on a filesystem
// path at runtime.
//
//go:embed *.sql
var FS embed.FS
