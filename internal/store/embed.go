package store

import "embed"

// MigrationsFS holds the embedded goose migration files.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
