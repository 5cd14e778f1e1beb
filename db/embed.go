// Package db embeds the goose migrations for the local store, one directory
// per SQL dialect.
package db

import "embed"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

// MigrationsDir returns the directory inside Migrations for a local driver.
func MigrationsDir(driver string) string {
	return "migrations/" + driver
}
