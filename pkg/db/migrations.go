package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/reposearch/pkg/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change read from a NNN_name.sql file.
type Migration struct {
	Version   int
	Name      string
	SQL       string
	AppliedAt *time.Time
}

// Migrator applies migrations to a sqlite database and records them in the
// schema_migrations table.
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
	dir  string
	log  *log.Logger
}

// NewMigrator returns a Migrator for the page cache schema.
func NewMigrator(db *sql.DB) *Migrator {
	return NewMigratorFromFS(db, migrationsFS, "migrations")
}

// NewMigratorFromFS reads migrations from dir in fsys instead of the
// embedded set.
func NewMigratorFromFS(db *sql.DB, fsys fs.FS, dir string) *Migrator {
	return &Migrator{db: db, fsys: fsys, dir: dir, log: log.ForService("db")}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// Applied returns the applied versions and when each one ran.
func (m *Migrator) Applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt any
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[version] = parseTimestamp(appliedAt)
	}
	return applied, rows.Err()
}

// parseTimestamp accepts a decoded time or CURRENT_TIMESTAMP text.
func parseTimestamp(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s = t
	case []byte:
		s = string(t)
	}
	parsed, _ := time.Parse(time.DateTime, s)
	return parsed
}

// Available lists every migration file sorted by version. Files not named
// NNN_name.sql are skipped.
func (m *Migrator) Available() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", m.dir, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		base, isSQL := strings.CutSuffix(entry.Name(), ".sql")
		if entry.IsDir() || !isSQL {
			continue
		}
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(content)})
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })
	return migrations, nil
}

// Status splits the available migrations into applied and pending ones.
func (m *Migrator) Status(ctx context.Context) (applied, pending []Migration, err error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	done, err := m.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	available, err := m.Available()
	if err != nil {
		return nil, nil, err
	}

	for _, migration := range available {
		if at, ok := done[migration.Version]; ok {
			migration.AppliedAt = &at
			applied = append(applied, migration)
		} else {
			pending = append(pending, migration)
		}
	}
	return applied, pending, nil
}

// Apply runs one migration and records it in a single transaction.
func (m *Migrator) Apply(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("executing migration %d: %w", migration.Version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
		return fmt.Errorf("recording migration %d: %w", migration.Version, err)
	}
	return tx.Commit()
}

// Migrate applies every pending migration in version order and returns how
// many ran. It stops at the first failure, leaving that migration pending.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	_, pending, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	for i, migration := range pending {
		m.log.Debugf("applying migration %03d_%s", migration.Version, migration.Name)
		if err := m.Apply(ctx, migration); err != nil {
			return i, fmt.Errorf("applying migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	if len(pending) > 0 {
		m.log.Infof("applied %d cache schema migrations", len(pending))
	}
	return len(pending), nil
}

// InitializeDatabase brings db up to the current page cache schema.
func InitializeDatabase(ctx context.Context, db *sql.DB) error {
	if _, err := NewMigrator(db).Migrate(ctx); err != nil {
		return fmt.Errorf("migrating cache schema: %w", err)
	}
	return nil
}
