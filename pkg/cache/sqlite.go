package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/db"
)

// SQLiteStore keeps encoded pages in a sqlite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ AdminStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and applies pending
// schema migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.InitializeDatabase(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteStore{db: conn, path: path}, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM pages WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying page: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*core.CombinedPage, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM pages WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return decodePage(body)
}

func (s *SQLiteStore) Put(ctx context.Context, key string, page *core.CombinedPage) error {
	body, err := encodePage(page)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pages (key, body, size) VALUES (?, ?, ?)",
		key, body, len(body),
	)
	if err != nil {
		return fmt.Errorf("storing page: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Driver: "sqlite"}
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(size), 0) FROM pages").Scan(&stats.Entries, &stats.Bytes)
	if err != nil {
		return stats, fmt.Errorf("counting pages: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pages")
	if err != nil {
		return 0, fmt.Errorf("purging pages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged pages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return n, fmt.Errorf("vacuuming cache: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
