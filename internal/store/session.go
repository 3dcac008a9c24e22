package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ampwave/ampwave/internal/models"
)

// SessionStore persists the single [models.Session] row.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new [SessionStore] with the given database connection
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Put replaces the stored session.
func (s *SessionStore) Put(se models.Session) error {
	query := `
		REPLACE INTO sessions
			(id, auth, api_version, session_expire, update_time, add_time, clean_time,
			 songs, albums, artists, playlists, videos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, singletonID,
		se.Auth, se.APIVersion, se.SessionExpire, se.Update, se.Add, se.Clean,
		se.Songs, se.Albums, se.Artists, se.Playlists, se.Videos)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the stored session, or nil when logged out.
func (s *SessionStore) Get() (*models.Session, error) {
	query := `
		SELECT auth, api_version, session_expire, update_time, add_time, clean_time,
		       songs, albums, artists, playlists, videos
		FROM sessions WHERE id = ?
	`
	var (
		se                models.Session
		update, add, clean sql.NullTime
	)
	err := s.db.QueryRow(query, singletonID).Scan(
		&se.Auth, &se.APIVersion, &se.SessionExpire, &update, &add, &clean,
		&se.Songs, &se.Albums, &se.Artists, &se.Playlists, &se.Videos)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	se.Update = nullableTime(update)
	se.Add = nullableTime(add)
	se.Clean = nullableTime(clean)
	return &se, nil
}

// Clear removes the stored session.
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", singletonID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func nullableTime(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Time{}
}
