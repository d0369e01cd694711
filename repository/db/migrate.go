package db

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	domain "taskman/internal/domain/errors"
)

// Migration applies all pending SQL migrations from migratePath against the
// database behind dbDSN. An already up-to-date schema is not an error.
func Migration(dbDSN, migratePath string) error {
	if dbDSN == "" {
		return domain.ErrEmptyDSN
	}
	if migratePath == "" {
		return domain.ErrEmptyMigratePath
	}

	m, err := migrate.New("file://"+migratePath, dbDSN)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
