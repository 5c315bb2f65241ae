// Package migrate applies the embedded auth schema with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"school-management/backend/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Direction selects whether migrations are applied or rolled back.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ErrNoChange is returned by Apply when the schema is already at the requested end.
var ErrNoChange = migrate.ErrNoChange

var errNoDSN = errors.New("migrate: DATABASE_URL is not set")

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("migrate: direction must be up or down, got %q", s)
}

// Apply runs every pending migration in dir and returns the schema version afterwards.
// Version 0 means no migration is applied. ErrNoChange is returned together with the current version.
func Apply(dsn string, dir Direction) (uint, error) {
	if strings.TrimSpace(dsn) == "" {
		return 0, errNoDSN
	}
	if _, err := ParseDirection(string(dir)); err != nil {
		return 0, err
	}

	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if dir == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		version = 0
	case verr != nil:
		return 0, fmt.Errorf("migrate version: %w", verr)
	case dirty:
		return version, fmt.Errorf("migrate: schema version %d is dirty", version)
	}
	return version, err
}
