// Package storage persists users, books, reviews and pending OTP records in
// SQLite. All methods take a context and translate driver errors into the
// package sentinels.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB

	// generation increments on every mutation of the books table so cached
	// catalog reads can tell whether they are still current.
	generation atomic.Uint64
}

// Open opens (or creates) the SQLite database at dbPath and applies schema
// migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Generation returns the current books-table generation. It changes whenever
// a book row is created or its count mutated.
func (s *Store) Generation() uint64 { return s.generation.Load() }

func (s *Store) bumpGeneration() { s.generation.Add(1) }

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            favourite_book TEXT NOT NULL DEFAULT '',
            favourite_author TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS issued_books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            issue_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_issued_due ON issued_books(due_date);`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            author TEXT NOT NULL DEFAULT '',
            genre TEXT NOT NULL DEFAULT '',
            department TEXT NOT NULL DEFAULT '',
            count INTEGER NOT NULL DEFAULT 0,
            vendor TEXT NOT NULL DEFAULT '',
            vendor_id INTEGER NOT NULL DEFAULT 0,
            publisher TEXT NOT NULL DEFAULT '',
            publisher_id INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_title ON books(title);`,
		`CREATE TABLE IF NOT EXISTS reviews (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT NOT NULL,
            title TEXT NOT NULL,
            review TEXT NOT NULL,
            rating INTEGER NOT NULL,
            review_date DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS otps (
            email TEXT PRIMARY KEY,
            otp TEXT NOT NULL,
            expires_at DATETIME NOT NULL
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}
