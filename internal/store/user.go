package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/piperalpha/training/internal/model"
)

// CreateUser inserts a new account. The email is the primary key, so a
// second insert for the same address fails.
func (s *Store) CreateUser(u model.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, role, trainee_name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Role, u.TraineeName, createdAt,
	)
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return err
	}
	slog.Info("created user", "email", u.Email, "role", u.Role)
	return nil
}

// GetUserByEmail returns a user by email, or nil if not registered.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT email, password_hash, role, trainee_name, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.Email, &u.PasswordHash, &u.Role, &u.TraineeName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// OwnerExists reports whether an account is registered under email. It is
// the identity-lookup half of the session.Directory contract.
func (s *Store) OwnerExists(email string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	return count > 0, err
}

// ListUsers returns all accounts ordered by registration time.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT email, password_hash, role, trainee_name, created_at
		 FROM users ORDER BY created_at, email`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Email, &u.PasswordHash, &u.Role, &u.TraineeName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserCount returns the total number of accounts.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
