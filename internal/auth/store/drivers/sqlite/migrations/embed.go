package migrations

import "embed"

// Migrations holds the golang-migrate files for the auth sqlite schema.
//
//go:embed *.sql
var Migrations embed.FS
