// Package migrations embeds the Postgres schema migrations applied with goose
// at server start and in integration tests.
package migrations

import "embed"

// FS holds every *.sql migration.
//
//go:embed *.sql
var FS embed.FS
