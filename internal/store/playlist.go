package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// PlaylistStore persists the cached playlist set.
//
// The flag column stores the playlist flag as its raw JSON encoding so the
// boolean-or-integer ambiguity survives a round trip through the cache.
type PlaylistStore struct {
	db *sql.DB
}

// NewPlaylistStore creates a new [PlaylistStore] with the given database connection
func NewPlaylistStore(db *sql.DB) *PlaylistStore {
	return &PlaylistStore{db: db}
}

// List returns all cached playlists ordered by name.
func (s *PlaylistStore) List() ([]models.Playlist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, owner, items, type, art_url, flag
		FROM playlists ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var (
			p    models.Playlist
			flag string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner, &p.Items, &p.Type, &p.ArtURL, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		// FlagValue.UnmarshalJSON never fails; malformed stored values
		// decode to FlagUnknown.
		_ = json.Unmarshal([]byte(flag), &p.Flag)
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// Upsert inserts or replaces the given playlists.
func (s *PlaylistStore) Upsert(playlists []models.Playlist) error {
	for _, p := range playlists {
		flag, err := json.Marshal(p.Flag)
		if err != nil {
			return fmt.Errorf("failed to encode playlist flag: %w", err)
		}
		_, err = s.db.Exec(`
			REPLACE INTO playlists (id, name, owner, items, type, art_url, flag)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Owner, p.Items, p.Type, p.ArtURL, string(flag))
		if err != nil {
			return fmt.Errorf("failed to upsert playlist %s: %w", p.ID, err)
		}
	}
	return nil
}

// Clear deletes all cached playlists.
func (s *PlaylistStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM playlists"); err != nil {
		return fmt.Errorf("failed to clear playlists: %w", err)
	}
	return nil
}
