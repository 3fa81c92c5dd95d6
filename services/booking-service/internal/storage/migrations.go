package storage

import (
	"embed"

	"github.com/agendafacil/agendafacil/libs/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the booking schema. The migrations table is namespaced so
// store-service can share the database in single-instance deployments.
func Migrate(databaseURL string) error {
	return migrate.Run(databaseURL, migrationsFS, "migrations", migrate.Options{
		MigrationsTable: "booking_schema_migrations",
	})
}
