package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mbolis/rpe-survey/log"
)

//go:embed migrations
var rpeMigrations embed.FS

// migrateDB brings the athlete and rpe_entry tables up to the latest version
// and returns it.
func migrateDB(db *sql.DB) (uint, error) {
	src, err := iofs.New(rpeMigrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("loading migrations: %w", err)
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("sqlite3 driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return 0, err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// already at the latest version
	case err != nil:
		return 0, err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}

	log.WithFields(log.Fields{"version": version}).Debug("db.migrated")
	return version, nil
}
