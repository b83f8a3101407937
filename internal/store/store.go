// Package store persists users and normalized session records in SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		trainee_name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_email TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		chapters TEXT NOT NULL,
		FOREIGN KEY (owner_email) REFERENCES users(email) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_session_records_owner
		ON session_records(owner_email);
	`
	_, err := s.db.Exec(schema)
	return err
}
