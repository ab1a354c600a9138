package learned

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// Migrate applies every pending schema migration for the learned-mapping
// table against sqlDB, using driver ("postgres" or "sqlite") to pick both
// the embedded migration set and the golang-migrate database driver. A
// no-op return (nil) also covers the "already at latest version" case.
func Migrate(sqlDB *sql.DB, driver string) error {
	var (
		migrationFS fs.FS
		dbDriver    database.Driver
		err         error
	)

	switch driver {
	case "postgres":
		migrationFS, err = fs.Sub(postgresMigrations, "migrations/postgres")
		if err != nil {
			return fmt.Errorf("learned: load postgres migrations: %w", err)
		}
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	case "sqlite":
		migrationFS, err = fs.Sub(sqliteMigrations, "migrations/sqlite")
		if err != nil {
			return fmt.Errorf("learned: load sqlite migrations: %w", err)
		}
		dbDriver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	default:
		return fmt.Errorf("learned: unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("learned: create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("learned: create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("learned: create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("learned: apply migrations: %w", err)
	}
	return nil
}
