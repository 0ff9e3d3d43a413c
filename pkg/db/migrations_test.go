package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InitializeDatabase(ctx, db); err != nil {
		t.Fatalf("InitializeDatabase failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO pages (key, body, size) VALUES (?, ?, ?)", "k", []byte("v"), 1); err != nil {
		t.Fatalf("pages table not usable: %v", err)
	}

	applied, pending, err := NewMigrator(db).Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending migrations, got %d", len(pending))
	}
	if len(applied) < 2 {
		t.Fatalf("Expected at least 2 applied migrations, got %d", len(applied))
	}
	if applied[0].AppliedAt == nil || applied[0].AppliedAt.IsZero() {
		t.Errorf("Expected an applied timestamp, got %v", applied[0].AppliedAt)
	}

	// Re-running is a no-op.
	n, err := NewMigrator(db).Migrate(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second run applied %d migrations, want 0", n)
	}
}

func TestMigrationsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_second.sql": {Data: []byte("CREATE TABLE second (id INTEGER);")},
		"m/001_first.sql":  {Data: []byte("CREATE TABLE first (id INTEGER);")},
		"m/README.md":      {Data: []byte("ignored")},
		"m/bad_name.sql":   {Data: []byte("ignored")},
	}
	migrator := NewMigratorFromFS(openTestDB(t), fsys, "m")

	available, err := migrator.Available()
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("Expected 2 migrations, got %d", len(available))
	}
	if available[0].Version != 1 || available[0].Name != "first" {
		t.Errorf("Unexpected first migration: %+v", available[0])
	}

	n, err := migrator.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Applied %d migrations, want 2", n)
	}
}

func TestFailedMigrationStaysPending(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/001_ok.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"m/002_broken.sql": {Data: []byte("CREATE TABLE half (id INTEGER); THIS IS NOT SQL;")},
	}
	migrator := NewMigratorFromFS(openTestDB(t), fsys, "m")

	n, err := migrator.Migrate(ctx)
	if err == nil {
		t.Fatal("Expected error for broken migration")
	}
	if n != 1 {
		t.Errorf("Expected 1 migration applied before the failure, got %d", n)
	}

	_, pending, err := migrator.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("Expected broken migration to stay pending, got %+v", pending)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   any
		zero bool
	}{
		{"text", "2025-01-02 03:04:05", false},
		{"bytes", []byte("2025-01-02 03:04:05"), false},
		{"garbage", "yesterday", true},
		{"nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%v) = %v", tt.in, got)
			}
		})
	}
}
