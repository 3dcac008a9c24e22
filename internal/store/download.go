package store

import (
	"database/sql"
	"fmt"

	"github.com/ampwave/ampwave/internal/models"
)

// DownloadStore records songs downloaded for offline playback.
type DownloadStore struct {
	db *sql.DB
}

// NewDownloadStore creates a new [DownloadStore] with the given database connection
func NewDownloadStore(db *sql.DB) *DownloadStore {
	return &DownloadStore{db: db}
}

// Add inserts or replaces a downloaded song record.
func (s *DownloadStore) Add(d models.DownloadedSong) error {
	query := `
		REPLACE INTO downloaded_songs
			(media_id, owner, title, artist_id, artist_name, album_id, album_name,
			 song_uri, image_url, bitrate, channels, mime, format, size, time,
			 track_number, year, relative_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		d.MediaID, d.Owner, d.Title, d.ArtistID, d.ArtistName, d.AlbumID, d.AlbumName,
		d.SongURI, d.ImageURL, d.Bitrate, d.Channels, d.Mime, d.Format, d.Size, d.Time,
		d.TrackNumber, d.Year, d.RelativePath)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// Get returns the download record for a media id and owner, or nil.
func (s *DownloadStore) Get(mediaID, owner string) (*models.DownloadedSong, error) {
	query := `
		SELECT media_id, owner, title, artist_id, artist_name, album_id, album_name,
		       song_uri, image_url, bitrate, channels, mime, format, size, time,
		       track_number, year, relative_path
		FROM downloaded_songs WHERE media_id = ? AND owner = ?
	`
	var d models.DownloadedSong
	err := s.db.QueryRow(query, mediaID, owner).Scan(
		&d.MediaID, &d.Owner, &d.Title, &d.ArtistID, &d.ArtistName, &d.AlbumID, &d.AlbumName,
		&d.SongURI, &d.ImageURL, &d.Bitrate, &d.Channels, &d.Mime, &d.Format, &d.Size, &d.Time,
		&d.TrackNumber, &d.Year, &d.RelativePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query download: %w", err)
	}
	return &d, nil
}

// List returns all downloads for the given owner ordered by title.
func (s *DownloadStore) List(owner string) ([]models.DownloadedSong, error) {
	rows, err := s.db.Query(`
		SELECT media_id, owner, title, artist_id, artist_name, album_id, album_name,
		       song_uri, image_url, bitrate, channels, mime, format, size, time,
		       track_number, year, relative_path
		FROM downloaded_songs WHERE owner = ? ORDER BY title ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []models.DownloadedSong
	for rows.Next() {
		var d models.DownloadedSong
		if err := rows.Scan(
			&d.MediaID, &d.Owner, &d.Title, &d.ArtistID, &d.ArtistName, &d.AlbumID, &d.AlbumName,
			&d.SongURI, &d.ImageURL, &d.Bitrate, &d.Channels, &d.Mime, &d.Format, &d.Size, &d.Time,
			&d.TrackNumber, &d.Year, &d.RelativePath); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return downloads, nil
}

// Clear deletes all download records.
func (s *DownloadStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM downloaded_songs"); err != nil {
		return fmt.Errorf("failed to clear downloads: %w", err)
	}
	return nil
}
