package store

import (
	"database/sql"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// SettingsStore persists per-username [models.LocalSettings].
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore creates a new [SettingsStore] with the given database connection
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Put inserts or replaces the settings row for its username.
func (s *SettingsStore) Put(ls models.LocalSettings) error {
	if ls.Username == "" {
		return fmt.Errorf("settings require a username")
	}
	query := `
		REPLACE INTO local_settings
			(username, theme, enable_remote_logging, smart_download,
			 enable_auto_updates, streaming_quality)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, ls.Username, ls.Theme, ls.EnableRemoteLogging,
		ls.SmartDownload, ls.EnableAutoUpdates, ls.StreamingQuality)
	if err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}
	return nil
}

// Get returns settings for a username; absent rows yield the defaults.
func (s *SettingsStore) Get(username string) (models.LocalSettings, error) {
	query := `
		SELECT username, theme, enable_remote_logging, smart_download,
		       enable_auto_updates, streaming_quality
		FROM local_settings WHERE username = ?
	`
	var ls models.LocalSettings
	err := s.db.QueryRow(query, username).Scan(&ls.Username, &ls.Theme,
		&ls.EnableRemoteLogging, &ls.SmartDownload, &ls.EnableAutoUpdates, &ls.StreamingQuality)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(username), nil
	}
	if err != nil {
		return models.LocalSettings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	return ls, nil
}
