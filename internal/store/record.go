package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/piperalpha/training/internal/model"
)

// CreateRecord persists a normalized session record and allocates its
// session ID. Records are write-once; there is no update path.
func (s *Store) CreateRecord(rec model.SessionRecord) (int64, error) {
	chapters, err := json.Marshal(rec.Chapters)
	if err != nil {
		return 0, fmt.Errorf("encode chapters: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO session_records (owner_email, created_at, chapters) VALUES (?, ?, ?)`,
		rec.OwnerEmail, rec.CreatedAt, string(chapters),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRecord returns a session record by ID, or nil if not found.
func (s *Store) GetRecord(id int64) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	var chapters string
	err := s.db.QueryRow(
		`SELECT id, owner_email, created_at, chapters FROM session_records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.OwnerEmail, &rec.CreatedAt, &chapters)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(chapters), &rec.Chapters); err != nil {
		return nil, fmt.Errorf("decode chapters for session %d: %w", id, err)
	}
	return &rec, nil
}

// ListRecordsByOwner returns all of one owner's session records, newest
// first.
func (s *Store) ListRecordsByOwner(email string) ([]model.SessionRecord, error) {
	return s.listRecords(
		`SELECT id, owner_email, created_at, chapters FROM session_records
		 WHERE owner_email = ? ORDER BY created_at DESC, id DESC`, email)
}

// ListAllRecords returns every session record across all owners, newest
// first.
func (s *Store) ListAllRecords() ([]model.SessionRecord, error) {
	return s.listRecords(
		`SELECT id, owner_email, created_at, chapters FROM session_records
		 ORDER BY created_at DESC, id DESC`)
}

func (s *Store) listRecords(query string, args ...any) ([]model.SessionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var chapters string
		if err := rows.Scan(&rec.ID, &rec.OwnerEmail, &rec.CreatedAt, &chapters); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(chapters), &rec.Chapters); err != nil {
			return nil, fmt.Errorf("decode chapters for session %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordCount returns the total number of session records.
func (s *Store) RecordCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM session_records`).Scan(&count)
	return count, err
}
