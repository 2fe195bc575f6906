package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for plumbline's result cache.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER DEFAULT 0,
  last_checked    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  rule_id         TEXT NOT NULL,
  severity        TEXT NOT NULL,
  message         TEXT NOT NULL,
  slot            INTEGER DEFAULT 0,
  start_offset    INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  end_offset      INTEGER,
  end_line        INTEGER,
  end_col         INTEGER,
  additional      BLOB
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_rule ON diagnostics(rule_id);
`

// DeleteFileData transactionally removes a file and its diagnostics.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileTx(tx, fileID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteFileTx(tx *sql.Tx, fileID int64) error {
	for _, q := range []string{
		"DELETE FROM diagnostics WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete file data: %w", err)
		}
	}
	return nil
}

// Clear removes every cached file and diagnostic. Metadata is kept.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM diagnostics", "DELETE FROM files"} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
