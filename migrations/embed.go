// Package migrations carries the bridge's SQL schema, embedded so the
// binary needs no .sql files on disk. Importing the package (blank
// import from main) is enough to register them with the database layer.
package migrations

import (
	"embed"

	"github.com/nerrad567/avr-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
