package store

import (
	"database/sql"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// UserStore persists the single [models.User] row for the logged-in account.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new [UserStore] with the given database connection
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Put replaces the stored user record. The record is always overwritten from
// the remote endpoint, never merged field by field.
func (s *UserStore) Put(u models.User) error {
	query := `
		REPLACE INTO users
			(id, user_id, username, email, access, stream_token, full_name_public,
			 disabled, create_date, last_seen, website, state, city)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, singletonID,
		u.ID, u.Username, u.Email, u.Access, u.StreamToken, u.FullNamePublic,
		u.Disabled, u.CreateDate, u.LastSeen, u.Website, u.State, u.City)
	if err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// Get returns the stored user, or nil when none is cached.
func (s *UserStore) Get() (*models.User, error) {
	query := `
		SELECT user_id, username, email, access, stream_token, full_name_public,
		       disabled, create_date, last_seen, website, state, city
		FROM users WHERE id = ?
	`
	var u models.User
	err := s.db.QueryRow(query, singletonID).Scan(
		&u.ID, &u.Username, &u.Email, &u.Access, &u.StreamToken, &u.FullNamePublic,
		&u.Disabled, &u.CreateDate, &u.LastSeen, &u.Website, &u.State, &u.City)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// Clear removes the stored user.
func (s *UserStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM users WHERE id = ?", singletonID); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	return nil
}
