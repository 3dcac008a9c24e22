package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCredentialsStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewCredentialsStore(db)

	t.Run("absent returns nil", func(t *testing.T) {
		c, err := s.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c != nil {
			t.Error("expected nil credentials before first Put")
		}
	})

	t.Run("put then get", func(t *testing.T) {
		want := models.Credentials{Username: "luci", PasswordHash: "abc", ServerURL: "https://amp.example.org", APIToken: ""}
		if err := s.Put(want); err != nil {
			t.Fatalf("failed to put credentials: %v", err)
		}
		got, err := s.Get()
		if err != nil {
			t.Fatalf("failed to get credentials: %v", err)
		}
		if got == nil || *got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("put replaces the singleton", func(t *testing.T) {
		if err := s.Put(models.Credentials{Username: "other"}); err != nil {
			t.Fatalf("failed to replace credentials: %v", err)
		}
		got, _ := s.Get()
		if got.Username != "other" {
			t.Errorf("expected replacement, got %q", got.Username)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := s.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		got, _ := s.Get()
		if got != nil {
			t.Error("expected nil after clear")
		}
	})
}

func TestSessionStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewSessionStore(db)

	expire := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("put then get round trips", func(t *testing.T) {
		want := models.Session{Auth: "token-1", APIVersion: "6.3.0", SessionExpire: expire, Songs: 1200, Albums: 90}
		if err := s.Put(want); err != nil {
			t.Fatalf("failed to put session: %v", err)
		}
		got, err := s.Get()
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got == nil {
			t.Fatal("expected a session")
		}
		if got.Auth != want.Auth || !got.SessionExpire.Equal(want.SessionExpire) || got.Songs != want.Songs {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("idempotent re-read", func(t *testing.T) {
		first, err := s.Get()
		if err != nil {
			t.Fatalf("failed first read: %v", err)
		}
		second, err := s.Get()
		if err != nil {
			t.Fatalf("failed second read: %v", err)
		}
		if first.Auth != second.Auth || !first.SessionExpire.Equal(second.SessionExpire) {
			t.Error("two consecutive reads should be identical")
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := s.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		got, _ := s.Get()
		if got != nil {
			t.Error("expected nil session after clear")
		}
	})
}

func TestGenreStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewGenreStore(db)

	genres := []models.Genre{
		{ID: "2", Name: "Jazz", Songs: 40},
		{ID: "1", Name: "Ambient", Songs: 12},
	}

	t.Run("upsert and ordered list", func(t *testing.T) {
		if err := s.Upsert(genres); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		got, err := s.List()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 genres, got %d", len(got))
		}
		if got[0].Name != "Ambient" {
			t.Errorf("expected name ordering, got %q first", got[0].Name)
		}
	})

	t.Run("idempotent re-read", func(t *testing.T) {
		a, _ := s.List()
		b, _ := s.List()
		if len(a) != len(b) || a[0] != b[0] || a[1] != b[1] {
			t.Error("two consecutive reads should be identical")
		}
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		if err := s.Upsert([]models.Genre{{ID: "1", Name: "Ambient", Songs: 15}}); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		got, _ := s.List()
		if len(got) != 2 || got[0].Songs != 15 {
			t.Errorf("expected in-place replacement, got %+v", got)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := s.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		got, _ := s.List()
		if len(got) != 0 {
			t.Error("expected empty list after clear")
		}
	})
}

func TestPlaylistStoreFlagRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewPlaylistStore(db)

	playlists := []models.Playlist{
		{ID: "p1", Name: "Morning", Owner: "luci", Items: 14, Type: "private",
			Flag: models.FlagValue{Kind: models.FlagInt, Int: 1}},
		{ID: "p2", Name: "Evening", Owner: "luci", Items: 3, Type: "public",
			Flag: models.FlagValue{Kind: models.FlagBool, Bool: true}},
	}
	if err := s.Upsert(playlists); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(got))
	}
	// ordered by name: Evening first
	if got[0].Flag.Kind != models.FlagBool || !got[0].Flag.Bool {
		t.Errorf("boolean flag lost in round trip: %+v", got[0].Flag)
	}
	if got[1].Flag.Kind != models.FlagInt || got[1].Flag.Int != 1 {
		t.Errorf("integer flag lost in round trip: %+v", got[1].Flag)
	}
}

func TestDownloadStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewDownloadStore(db)

	song := models.Song{
		MediaID: "song-9",
		Title:   "Slow Tide",
		Artist:  models.MusicAttribute{ID: "a1", Name: "Driftline"},
		Album:   models.MusicAttribute{ID: "al1", Name: "Undertow"},
		Size:    4 << 20,
	}
	rec := song.ToDownloaded("luci", "/music/driftline/slow-tide.mp3")

	if err := s.Add(rec); err != nil {
		t.Fatalf("failed to add download: %v", err)
	}

	t.Run("get by media id and owner", func(t *testing.T) {
		got, err := s.Get("song-9", "luci")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got == nil || got.SongURI != rec.SongURI || got.ArtistName != "Driftline" {
			t.Errorf("unexpected record: %+v", got)
		}
	})

	t.Run("scoped to owner", func(t *testing.T) {
		got, err := s.Get("song-9", "someone-else")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("download should not be visible to another user")
		}
	})

	t.Run("list", func(t *testing.T) {
		got, err := s.List("luci")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 download, got %d", len(got))
		}
	})
}

func TestSettingsStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewSettingsStore(db)

	t.Run("absent yields defaults", func(t *testing.T) {
		got, err := s.Get("luci")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StreamingQuality != models.QualityHigh {
			t.Errorf("expected default quality, got %q", got.StreamingQuality)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		ls := models.DefaultSettings("luci")
		ls.SmartDownload = true
		ls.StreamingQuality = models.QualityMedium
		if err := s.Put(ls); err != nil {
			t.Fatalf("failed to put settings: %v", err)
		}
		got, err := s.Get("luci")
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}
		if !got.SmartDownload || got.StreamingQuality != models.QualityMedium {
			t.Errorf("settings not persisted: %+v", got)
		}
	})

	t.Run("requires username", func(t *testing.T) {
		if err := s.Put(models.LocalSettings{}); err == nil {
			t.Error("expected error for empty username")
		}
	})
}

func TestClearCachedData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	stores := New(db)

	if err := stores.Genres.Upsert([]models.Genre{{ID: "1", Name: "Rock"}}); err != nil {
		t.Fatalf("failed to seed genres: %v", err)
	}
	if err := stores.Playlists.Upsert([]models.Playlist{{ID: "p", Name: "X"}}); err != nil {
		t.Fatalf("failed to seed playlists: %v", err)
	}
	if err := stores.Downloads.Add(models.DownloadedSong{MediaID: "m", Owner: "luci", Title: "T", SongURI: "/x"}); err != nil {
		t.Fatalf("failed to seed downloads: %v", err)
	}

	if err := stores.ClearCachedData(); err != nil {
		t.Fatalf("failed to clear cached data: %v", err)
	}

	if g, _ := stores.Genres.List(); len(g) != 0 {
		t.Error("genres should be cleared")
	}
	if p, _ := stores.Playlists.List(); len(p) != 0 {
		t.Error("playlists should be cleared")
	}
	if d, _ := stores.Downloads.List("luci"); len(d) != 1 {
		t.Error("downloads should survive a cache clear")
	}
}
