package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the report archive. It embeds the pool so callers can query it
// directly in tests.
type DB struct {
	*sql.DB
	Path string
}

// connPragmas run on every new connection; foreign_keys and busy_timeout are
// per-connection settings.
var connPragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// DefaultDBPath is ~/.rapport/rapport.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".rapport", "rapport.db"), nil
}

// Open opens or creates the archive at path and brings its schema up to date.
func Open(path string) (*DB, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("open archive: %s is a directory", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return open(path, 0)
}

// OpenMemory opens a throwaway archive for tests.
func OpenMemory() (*DB, error) {
	// each connection to :memory: is its own database
	return open(":memory:", 1)
}

func open(path string, maxConns int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, Path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// ArchiveStats describes what the archive holds.
type ArchiveStats struct {
	SchemaVersion int `json:"schema_version"`
	Reports       int `json:"reports"`
	Targets       int `json:"targets"`
}

func (db *DB) Stats() (ArchiveStats, error) {
	var s ArchiveStats
	v, err := db.SchemaVersion()
	if err != nil {
		return s, err
	}
	s.SchemaVersion = v
	err = db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM reports), (SELECT COUNT(*) FROM report_targets)
	`).Scan(&s.Reports, &s.Targets)
	if err != nil {
		return s, fmt.Errorf("archive stats: %w", err)
	}
	return s, nil
}
