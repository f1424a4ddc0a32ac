package db

import (
	"errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending schema migration from migratePath.
func Migration(dbDSN string, migratePath string) error {
	if dbDSN == "" || migratePath == "" {
		return errors.New("database DSN and migrations path are required")
	}

	m, err := migrate.New("file://"+migratePath, dbDSN)
	if err != nil {
		log.Println("[ERROR] Failed to prepare migrations:", err)
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Println("[WARN] Failed to close migrator:", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Println("[ERROR] Failed to apply migrations:", err)
		return err
	}
	return nil
}
