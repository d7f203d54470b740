package repositories

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending SQL migrations from path against the database at
// dsn. A database already at the latest version is not an error.
func Migrate(dsn, path string) error {
	if dsn == "" {
		return fmt.Errorf("migrate: empty dsn")
	}
	if path == "" {
		return fmt.Errorf("migrate: empty migrations path")
	}
	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
