package db

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/colonyops/scribe/internal/core/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is a single versioned schema change with its inverse.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// SchemaStatus describes how far the database schema has been migrated.
type SchemaStatus struct {
	Current int
	Latest  int
	Pending []Migration
}

// UpToDate reports whether every embedded migration has been applied.
func (s SchemaStatus) UpToDate() bool {
	return len(s.Pending) == 0
}

// loadMigrations reads the embedded NNNN_name.{up,down}.sql files. Every
// version needs both halves, and versions come back in ascending order.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fname := entry.Name()

		version, name, direction, err := parseFilename(fname)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", fname, err)
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+fname)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fname, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %04d has mismatched names %q and %q", version, m.Name, name)
		}

		half := &m.UpSQL
		if direction == "down" {
			half = &m.DownSQL
		}
		if *half != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", direction, version)
		}
		*half = string(content)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		switch {
		case m.UpSQL == "":
			return nil, fmt.Errorf("migration %04d has down file but no up file", m.Version)
		case m.DownSQL == "":
			return nil, fmt.Errorf("migration %04d has up file but no down file", m.Version)
		}
		migrations = append(migrations, *m)
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
	return migrations, nil
}

// parseFilename extracts version, name, and direction from "NNNN_name.up.sql" or "NNNN_name.down.sql".
func parseFilename(filename string) (int, string, string, error) {
	direction := "up"
	base, ok := strings.CutSuffix(filename, ".up.sql")
	if !ok {
		direction = "down"
		base, ok = strings.CutSuffix(filename, ".down.sql")
	}
	if !ok {
		return 0, "", "", fmt.Errorf("expected .up.sql or .down.sql suffix, got %q", filename)
	}

	prefix, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", "", fmt.Errorf("expected format NNNN_name.{up,down}.sql")
	}

	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q is not a valid integer: %w", prefix, err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}

	return version, name, direction, nil
}

// migrateUp applies all pending up migrations in version order.
// Each migration runs in its own transaction with its version record.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	status, err := schemaStatus(ctx, conn)
	if err != nil {
		return err
	}

	log := logging.Component("db")
	for _, m := range status.Pending {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		err := inTx(ctx, conn, m.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the last n applied migrations in reverse version order.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, applied, err := loadWithApplied(ctx, conn)
	if err != nil {
		return err
	}

	var toRevert []Migration
	for _, m := range slices.Backward(migrations) {
		if applied[m.Version] {
			toRevert = append(toRevert, m)
		}
	}
	if n > len(toRevert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(toRevert))
	}

	log := logging.Component("db")
	for _, m := range toRevert[:n] {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		if err := inTx(ctx, conn, m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// Status reports the applied schema version and any pending migrations.
func (db *DB) Status(ctx context.Context) (SchemaStatus, error) {
	return schemaStatus(ctx, db.conn)
}

func schemaStatus(ctx context.Context, conn *sql.DB) (SchemaStatus, error) {
	migrations, applied, err := loadWithApplied(ctx, conn)
	if err != nil {
		return SchemaStatus{}, err
	}

	var status SchemaStatus
	for _, m := range migrations {
		status.Latest = m.Version
		if applied[m.Version] {
			status.Current = m.Version
			continue
		}
		status.Pending = append(status.Pending, m)
	}
	return status, nil
}

func loadWithApplied(ctx context.Context, conn *sql.DB) ([]Migration, map[int]bool, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	return migrations, applied, nil
}

// appliedVersions returns a set of already-applied migration versions.
func appliedVersions(ctx context.Context, conn *sql.DB) (map[int]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// inTx runs the schema change and its bookkeeping statement in one
// transaction.
func inTx(ctx context.Context, conn *sql.DB, change, record string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, change); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
