package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded SQL migrations
type Migrator struct {
	pool   *pgxpool.Pool
	files  fs.FS
	logger logrus.FieldLogger
}

// NewMigrator creates a migrator over the embedded migrations
func NewMigrator(pool *pgxpool.Pool, logger logrus.FieldLogger) *Migrator {
	sub, _ := fs.Sub(migrationsFS, "migrations")
	return &Migrator{pool: pool, files: sub, logger: logger.WithField("component", "migrator")}
}

// migration is one NNN_name.up.sql / NNN_name.down.sql pair
type migration struct {
	version string
	up      string
	down    string
}

// Up runs all pending migrations, each in its own transaction
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := m.load()
	if err != nil {
		return err
	}

	applied := 0
	for _, mig := range migrations {
		if mig.up == "" {
			continue
		}
		done, err := m.isApplied(ctx, mig.version)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", mig.version, err)
		}
		if done {
			m.logger.WithField("version", mig.version).Debug("Migration already applied")
			continue
		}

		content, err := fs.ReadFile(m.files, mig.up)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", mig.up, err)
		}

		err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", mig.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mig.up, err)
		}

		m.logger.WithField("file", mig.up).Info("Applied migration")
		applied++
	}

	m.logger.WithField("applied", applied).Info("Migrations up to date")
	return nil
}

// Down rolls back the most recently applied migration
func (m *Migrator) Down(ctx context.Context) error {
	var version string
	err := m.pool.QueryRow(ctx, `
		SELECT version FROM schema_migrations
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	migrations, err := m.load()
	if err != nil {
		return err
	}

	var downFile string
	for _, mig := range migrations {
		if mig.version == version {
			downFile = mig.down
		}
	}
	if downFile == "" {
		return fmt.Errorf("down migration not found for version %s", version)
	}

	content, err := fs.ReadFile(m.files, downFile)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", downFile, err)
	}

	err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", version)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to roll back migration %s: %w", downFile, err)
	}

	m.logger.WithField("file", downFile).Info("Rolled back migration")
	return nil
}

// load groups the migration files by version, sorted ascending
func (m *Migrator) load() ([]migration, error) {
	return loadMigrations(m.files)
}

func loadMigrations(files fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := map[string]*migration{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s has no version prefix", name)
		}
		mig, ok := byVersion[version]
		if !ok {
			mig = &migration{version: version}
			byVersion[version] = mig
		}
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			mig.up = name
		case strings.HasSuffix(name, ".down.sql"):
			mig.down = name
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, mig := range byVersion {
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW() NOT NULL
		)
	`)
	return err
}

func (m *Migrator) isApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
	return exists, err
}
