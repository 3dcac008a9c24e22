// package store provides the local persistence layer for all model types.
//
// Every store is a thin keyed-CRUD wrapper over the on-device SQLite
// database. Credentials, Session and User are singleton rows (fixed primary
// key, replaced wholesale on write); library resources are full-set tables
// that support clear-then-bulk-insert. Writes are single-row upserts; the
// clear+insert sequence used by the cache refresh is allowed to be
// non-atomic because repositories always re-read after writing.
package store

import "database/sql"

// singletonID is the fixed primary key for single-row tables.
const singletonID = 1

// Stores aggregates every store over one database handle.
type Stores struct {
	Credentials *CredentialsStore
	Sessions    *SessionStore
	Users       *UserStore
	Genres      *GenreStore
	Playlists   *PlaylistStore
	Downloads   *DownloadStore
	Settings    *SettingsStore
}

// New creates all stores backed by db.
func New(db *sql.DB) *Stores {
	return &Stores{
		Credentials: NewCredentialsStore(db),
		Sessions:    NewSessionStore(db),
		Users:       NewUserStore(db),
		Genres:      NewGenreStore(db),
		Playlists:   NewPlaylistStore(db),
		Downloads:   NewDownloadStore(db),
		Settings:    NewSettingsStore(db),
	}
}

// ClearCachedData deletes cached library resources (genres, playlists).
// Downloaded song records and per-user settings are kept; logout clears
// those separately.
func (s *Stores) ClearCachedData() error {
	if err := s.Genres.Clear(); err != nil {
		return err
	}
	return s.Playlists.Clear()
}
