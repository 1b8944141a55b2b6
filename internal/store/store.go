package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Well-known config keys.
const (
	ConfigPathKey = "configPath"
	ExportPathKey = "exportPath"
)

// ErrNotFound is returned when a lookup by id, code-index or name matches nothing.
var ErrNotFound = errors.New("not found")

type Store struct {
	db      *sql.DB
	dataDir string
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dataDir: filepath.Dir(dbPath)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir is the directory holding the database file.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		codeindex   TEXT UNIQUE,
		name        TEXT NOT NULL,
		path        TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tags (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		codeindex   TEXT UNIQUE,
		name        TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS commands (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		codeindex   TEXT UNIQUE,
		name        TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		summary     TEXT NOT NULL DEFAULT '',
		steps       TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_commands_name ON commands(name);

	CREATE TABLE IF NOT EXISTS command_projects (
		command_id  INTEGER NOT NULL REFERENCES commands(id) ON DELETE CASCADE,
		project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		PRIMARY KEY (command_id, project_id)
	);

	CREATE TABLE IF NOT EXISTS command_tags (
		command_id  INTEGER NOT NULL REFERENCES commands(id) ON DELETE CASCADE,
		tag_id      INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (command_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_command_tags_tag ON command_tags(tag_id);

	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		command_id   INTEGER REFERENCES commands(id) ON DELETE SET NULL,
		command_name TEXT NOT NULL DEFAULT '',
		step_index   INTEGER NOT NULL DEFAULT 0,
		rendered     TEXT NOT NULL,
		work_dir     TEXT NOT NULL DEFAULT '',
		ok           INTEGER NOT NULL DEFAULT 0,
		exit_code    INTEGER NOT NULL DEFAULT 0,
		stdout       TEXT NOT NULL DEFAULT '',
		stderr       TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		started_at   TEXT NOT NULL,
		duration_ms  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS config (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO config (key, value) VALUES (?, ?), (?, ?)`,
		ConfigPathKey, filepath.Join(s.dataDir, "config"),
		ExportPathKey, filepath.Join(s.dataDir, "exports"),
	)
	return err
}

// withTx runs fn in a transaction. fn must only use tx: with a single
// connection any query on s.db would block until the transaction ends.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// nullString maps "" to NULL so optional unique columns don't collide.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(what string, key any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
	}
	return fmt.Errorf("get %s %v: %w", what, key, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DefaultDBPath returns ~/.config/cmdvault/cmdvault.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "cmdvault", "cmdvault.db"), nil
}
