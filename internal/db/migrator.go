package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// Migrator applies SQL migrations from an embedded filesystem. Files follow
// the "<version>_<name>.up.sql" / "<version>_<name>.down.sql" convention and
// run in version order inside transactions.
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	logger *logger.Logger
}

// NewMigrator creates a Migrator over the given migration filesystem.
func NewMigrator(database *sql.DB, fsys fs.FS, log *logger.Logger) *Migrator {
	return &Migrator{
		db:     database,
		fsys:   fsys,
		logger: log,
	}
}

// ensureMigrationsTable creates the schema_migrations tracking table if it
// doesn't exist.
func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

// isApplied checks if a migration version has already been applied.
func (m *Migrator) isApplied(ctx context.Context, version string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = $1`, version).Scan(&count)
	return count > 0, err
}

// Up runs all pending up-migrations in order.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	files, err := m.migrationFiles("up")
	if err != nil {
		return err
	}

	for _, file := range files {
		version := extractVersion(file)

		applied, err := m.isApplied(ctx, version)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		if err := m.apply(ctx, file, version, true); err != nil {
			return err
		}
		m.logger.Info("Migration applied", "version", version, "file", file)
	}

	return nil
}

// Down rolls back the last applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	var version string
	err := m.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			m.logger.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("get latest migration: %w", err)
	}

	files, err := m.migrationFiles("down")
	if err != nil {
		return err
	}

	for _, file := range files {
		if extractVersion(file) != version {
			continue
		}
		if err := m.apply(ctx, file, version, false); err != nil {
			return err
		}
		m.logger.Info("Migration rolled back", "version", version, "file", file)
		return nil
	}

	return fmt.Errorf("down migration not found for version %s", version)
}

// apply executes one migration file and updates the tracking table, all in
// a single transaction.
func (m *Migrator) apply(ctx context.Context, file, version string, up bool) error {
	content, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", file, err)
	}

	record := `INSERT INTO schema_migrations (version) VALUES ($1)`
	if !up {
		record = `DELETE FROM schema_migrations WHERE version = $1`
	}
	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

// migrationFiles returns the sorted migration files for one direction.
func (m *Migrator) migrationFiles(direction string) ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	suffix := "." + direction + ".sql"
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

// extractVersion extracts the version number from a migration filename,
// e.g. "000001_init.up.sql" -> "000001".
func extractVersion(filename string) string {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) > 0 {
		return parts[0]
	}
	return filename
}
