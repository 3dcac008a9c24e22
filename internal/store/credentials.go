package store

import (
	"database/sql"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// CredentialsStore persists the single [models.Credentials] row.
type CredentialsStore struct {
	db *sql.DB
}

// NewCredentialsStore creates a new [CredentialsStore] with the given database connection
func NewCredentialsStore(db *sql.DB) *CredentialsStore {
	return &CredentialsStore{db: db}
}

// Put replaces the stored credentials. Called before every authorization
// network call so a request-signing layer always sees current values.
func (s *CredentialsStore) Put(c models.Credentials) error {
	query := `
		REPLACE INTO credentials (id, username, password_hash, server_url, api_token)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.Exec(query, singletonID, c.Username, c.PasswordHash, c.ServerURL, c.APIToken); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Get returns the stored credentials, or nil when none are stored.
func (s *CredentialsStore) Get() (*models.Credentials, error) {
	query := `
		SELECT username, password_hash, server_url, api_token
		FROM credentials WHERE id = ?
	`
	var c models.Credentials
	err := s.db.QueryRow(query, singletonID).Scan(&c.Username, &c.PasswordHash, &c.ServerURL, &c.APIToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	return &c, nil
}

// Clear removes the stored credentials.
func (s *CredentialsStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM credentials WHERE id = ?", singletonID); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
