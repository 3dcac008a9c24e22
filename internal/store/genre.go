package store

import (
	"database/sql"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// GenreStore persists the cached genre set.
type GenreStore struct {
	db *sql.DB
}

// NewGenreStore creates a new [GenreStore] with the given database connection
func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

// List returns all cached genres ordered by name.
func (s *GenreStore) List() ([]models.Genre, error) {
	rows, err := s.db.Query(`
		SELECT id, name, albums, artists, songs, playlists
		FROM genres ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Albums, &g.Artists, &g.Songs, &g.Playlists); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return genres, nil
}

// Upsert inserts or replaces the given genres.
func (s *GenreStore) Upsert(genres []models.Genre) error {
	for _, g := range genres {
		_, err := s.db.Exec(`
			REPLACE INTO genres (id, name, albums, artists, songs, playlists)
			VALUES (?, ?, ?, ?, ?, ?)
		`, g.ID, g.Name, g.Albums, g.Artists, g.Songs, g.Playlists)
		if err != nil {
			return fmt.Errorf("failed to upsert genre %s: %w", g.ID, err)
		}
	}
	return nil
}

// Clear deletes all cached genres.
func (s *GenreStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM genres"); err != nil {
		return fmt.Errorf("failed to clear genres: %w", err)
	}
	return nil
}
