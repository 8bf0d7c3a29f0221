// Package catalog keeps a queryable SQLite index of ingested articles.
// The index is derived from the source files and can be rebuilt at any time.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init opens the catalog. An empty path keeps the catalog in memory for the
// lifetime of the returned handle; otherwise path names a SQLite file in WAL mode.
func Init(path string) (*sql.DB, error) {
	if path == "" || path == ":memory:" {
		return initMemory()
	}
	return initFile(path)
}

func initMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory catalog: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initFile(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS articles (
		  id              TEXT PRIMARY KEY,
		  run_id          TEXT NOT NULL,
		  path            TEXT NOT NULL UNIQUE,
		  slug            TEXT NOT NULL UNIQUE,
		  title           TEXT NOT NULL,
		  title_norm      TEXT NOT NULL,
		  date            TEXT NOT NULL,
		  tags_json       TEXT NOT NULL,
		  extra_json      TEXT,
		  body_json       TEXT NOT NULL,
		  checksum        TEXT NOT NULL,
		  size_bytes      INTEGER NOT NULL,
		  words           INTEGER NOT NULL,
		  code_blocks     INTEGER NOT NULL,
		  directives      INTEGER NOT NULL,
		  headings        INTEGER NOT NULL,
		  reading_minutes INTEGER NOT NULL,
		  ingested_at     INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_title_date
		ON articles(title_norm, date);

		CREATE INDEX IF NOT EXISTS idx_articles_date
		ON articles(date DESC, title_norm);

		CREATE TABLE IF NOT EXISTS article_tags (
		  article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		  tag        TEXT NOT NULL,
		  PRIMARY KEY (article_id, tag)
		);

		CREATE INDEX IF NOT EXISTS idx_article_tags_tag
		ON article_tags(tag);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
