// Package db holds the SQL schema of the authors service.
package db

import "embed"

// Migrations contains the goose SQL migrations under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that goose reads from.
const MigrationsDir = "migrations"
