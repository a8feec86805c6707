// Package migrate applies the SQL migrations under migrations/ with golang-migrate.
package migrate

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file source for migrations
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrDirty is returned when a previous migration failed half way.
var ErrDirty = errors.New("database is in dirty state")

type Config struct {
	DatabaseURL    string
	MigrationsPath string
}

// Status is the schema version recorded by golang-migrate. Version 0 means
// no migration has been applied.
type Status struct {
	Version uint
	Dirty   bool
}

type Runner struct {
	config *Config
	logger *zap.Logger
}

func NewRunner(config *Config, logger *zap.Logger) *Runner {
	return &Runner{
		config: config,
		logger: logger,
	}
}

// Up applies every pending migration.
func (r *Runner) Up() (Status, error) {
	return r.apply("up", func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// Steps applies n migrations forward, or rolls back -n when n is negative.
func (r *Runner) Steps(n int) (Status, error) {
	if n == 0 {
		return r.Version()
	}

	return r.apply(fmt.Sprintf("steps %d", n), func(m *migrate.Migrate) error {
		return m.Steps(n)
	})
}

// Version returns the current migration version.
func (r *Runner) Version() (Status, error) {
	var status Status
	err := r.withMigrate(func(m *migrate.Migrate) error {
		var err error
		status, err = currentStatus(m)
		return err
	})
	return status, err
}

func (r *Runner) apply(op string, fn func(*migrate.Migrate) error) (Status, error) {
	var status Status
	err := r.withMigrate(func(m *migrate.Migrate) error {
		if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations %s: %w", op, err)
		}

		var err error
		status, err = currentStatus(m)
		if err != nil {
			return err
		}
		if status.Dirty {
			return fmt.Errorf("%w at version %d", ErrDirty, status.Version)
		}
		return nil
	})
	if err != nil {
		return status, err
	}

	r.logger.Info("Migrations applied",
		zap.String("operation", op),
		zap.Uint("version", status.Version))
	return status, nil
}

func (r *Runner) withMigrate(fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("postgres", r.config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			r.logger.Warn("Failed to close database connection", zap.Error(closeErr))
		}
	}()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.config.MigrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return fn(m)
}

func currentStatus(m *migrate.Migrate) (Status, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to get version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}
