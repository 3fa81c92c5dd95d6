package storage

import (
	"embed"

	"github.com/agendafacil/agendafacil/libs/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the store schema. The migrations table is namespaced so
// booking-service can share the database in single-instance deployments.
func Migrate(databaseURL string) error {
	return migrate.Run(databaseURL, migrationsFS, "migrations", migrate.Options{
		MigrationsTable: "store_schema_migrations",
	})
}
