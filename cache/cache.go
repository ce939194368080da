// Package cache persists measured node_modules sizes in SQLite so repeated
// scans can skip the size walk for trees that have not changed.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one remembered measurement. LastModifiedAt is the directory's
// mtime when it was measured, truncated to the second.
type Entry struct {
	Path           string
	Size           uint64
	LastModifiedAt time.Time
	ScannedAt      time.Time
}

type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS dir_sizes (
    path        TEXT PRIMARY KEY,
    size        INTEGER NOT NULL,
    mod_time    INTEGER NOT NULL,
    measured_at INTEGER NOT NULL
);
`

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// DefaultPath is ~/.cache/nm-remover/cache.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "nm-remover", "cache.db"), nil
}

// Open creates the database and its parent directories if needed.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", dbPath, err)
	}

	// Scans store from several goroutines; one connection serialises them
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Store records a freshly measured size, replacing any earlier measurement.
func (c *Cache) Store(path string, size uint64, modTime time.Time) error {
	_, err := c.db.Exec(`
        INSERT INTO dir_sizes (path, size, mod_time, measured_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            size = excluded.size,
            mod_time = excluded.mod_time,
            measured_at = excluded.measured_at`,
		path, int64(size), modTime.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store size for %s: %w", path, err)
	}
	return nil
}

// Lookup returns the cached size for path if it was measured at the same
// modification time (second precision). An entry recorded at a different
// time is dropped.
func (c *Cache) Lookup(path string, modTime time.Time) (uint64, bool) {
	var size int64
	err := c.db.QueryRow(
		"SELECT size FROM dir_sizes WHERE path = ? AND mod_time = ?",
		path, modTime.Unix(),
	).Scan(&size)
	if err == nil {
		return uint64(size), true
	}

	if errors.Is(err, sql.ErrNoRows) {
		_, _ = c.db.Exec("DELETE FROM dir_sizes WHERE path = ? AND mod_time <> ?", path, modTime.Unix())
	}
	return 0, false
}

func (c *Cache) GetAll() ([]*Entry, error) {
	rows, err := c.db.Query("SELECT path, size, mod_time, measured_at FROM dir_sizes ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e       Entry
		size    int64
		modUnix int64
		measUx  int64
	)
	if err := rows.Scan(&e.Path, &size, &modUnix, &measUx); err != nil {
		return nil, err
	}
	e.Size = uint64(size)
	e.LastModifiedAt = time.Unix(modUnix, 0)
	e.ScannedAt = time.Unix(measUx, 0)
	return &e, nil
}

func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM dir_sizes WHERE path = ?", path)
	return err
}

// Prune removes entries whose directories no longer exist and reports how
// many were dropped.
func (c *Cache) Prune() (int, error) {
	entries, err := c.GetAll()
	if err != nil {
		return 0, err
	}

	var gone []string
	for _, e := range entries {
		if _, err := os.Stat(e.Path); errors.Is(err, os.ErrNotExist) {
			gone = append(gone, e.Path)
		}
	}
	if len(gone) == 0 {
		return 0, nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range gone {
		if _, err := tx.Exec("DELETE FROM dir_sizes WHERE path = ?", p); err != nil {
			return 0, fmt.Errorf("failed to prune %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(gone), nil
}
