package tasks

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampwave/ampwave/internal/ampache"
	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/shared"
	"github.com/ampwave/ampwave/internal/store"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, authToken, songID string) (*ampache.Stream, error)
}

func (f *fakeSource) DownloadSong(ctx context.Context, authToken, songID string) (*ampache.Stream, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, authToken, songID)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func streamOf(data string) *ampache.Stream {
	return &ampache.Stream{
		Body: io.NopCloser(bytes.NewReader([]byte(data))),
		Size: int64(len(data)),
		Mime: "audio/mpeg",
	}
}

func noConstraints(string, uint64) error { return nil }

func newTestEngine(t *testing.T, source SongSource, opts Options) (*Engine, *store.DownloadStore) {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	if opts.Constraints == nil {
		opts.Constraints = noConstraints
	}
	if opts.Backoff == 0 {
		opts.Backoff = 5 * time.Millisecond
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}

	downloads := store.New(db).Downloads
	token := func(context.Context) (string, error) { return "tok", nil }
	e := NewEngine(source, token, downloads, shared.NewLogger(io.Discard), opts)
	t.Cleanup(e.Close)
	return e, downloads
}

// waitTerminal reads updates until the given song reaches a terminal phase.
func waitTerminal(t *testing.T, ch <-chan ProgressUpdate, songID string) ProgressUpdate {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-ch:
			if u.SongID == songID && u.Phase.Terminal() {
				return u
			}
		case <-deadline:
			t.Fatalf("song %s never reached a terminal phase", songID)
		}
	}
}

func testSong(id, title string) models.Song {
	return models.Song{
		MediaID: id,
		Title:   title,
		Artist:  models.MusicAttribute{ID: "a1", Name: "Driftline"},
		Album:   models.MusicAttribute{ID: "al1", Name: "Undertow"},
	}
}

func TestDownloadSuccess(t *testing.T) {
	content := "fake-audio-bytes"
	source := &fakeSource{fn: func(_ context.Context, token, songID string) (*ampache.Stream, error) {
		assert.Equal(t, "tok", token)
		assert.Equal(t, "s1", songID)
		return streamOf(content), nil
	}}
	dir := t.TempDir()
	e, downloads := newTestEngine(t, source, Options{Dir: dir})

	song := testSong("s1", "Slow Tide")
	song.Filename = "music/driftline/slow-tide.mp3"
	ids := e.Enqueue("albums", "luci", []models.Song{song})
	require.Len(t, ids, 1)

	final := waitTerminal(t, e.Updates(), "s1")
	assert.Equal(t, Completed, final.Phase)
	assert.Equal(t, 100, final.Percent)

	path := filepath.Join(dir, "luci", "slow-tide.mp3")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	rec, err := downloads.Get("s1", "luci")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, path, rec.SongURI)
	assert.Equal(t, "Driftline", rec.ArtistName)
}

func TestFilenameFallback(t *testing.T) {
	source := &fakeSource{fn: func(context.Context, string, string) (*ampache.Stream, error) {
		return streamOf("x"), nil
	}}
	dir := t.TempDir()
	e, _ := newTestEngine(t, source, Options{Dir: dir})

	e.Enqueue("singles", "luci", []models.Song{testSong("s2", "Slow/Tide")})
	waitTerminal(t, e.Updates(), "s2")

	_, err := os.Stat(filepath.Join(dir, "luci", "Driftline - Slow-Tide.mp3"))
	assert.NoError(t, err, "slash in title must be sanitized")
}

func TestEnqueueAppendsToRunningQueue(t *testing.T) {
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	source := &fakeSource{fn: func(_ context.Context, _, songID string) (*ampache.Stream, error) {
		if songID == "s1" {
			<-release
		}
		mu.Lock()
		order = append(order, songID)
		mu.Unlock()
		return streamOf("x"), nil
	}}
	e, _ := newTestEngine(t, source, Options{})

	e.Enqueue("albums", "luci", []models.Song{testSong("s1", "First")})
	e.Enqueue("albums", "luci", []models.Song{testSong("s2", "Second")})
	close(release)

	waitTerminal(t, e.Updates(), "s2")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"s1", "s2"}, order, "appended work runs after work in flight")
}

func TestCancelAll(t *testing.T) {
	started := make(chan struct{})
	source := &fakeSource{fn: func(ctx context.Context, _, songID string) (*ampache.Stream, error) {
		if songID == "s1" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return streamOf("x"), nil
	}}
	e, downloads := newTestEngine(t, source, Options{})

	e.Enqueue("albums", "luci", []models.Song{
		testSong("s1", "Running"),
		testSong("s2", "Pending"),
	})
	<-started
	e.CancelAll("albums")

	phases := map[string]Phase{}
	deadline := time.After(5 * time.Second)
	for len(phases) < 2 {
		select {
		case u := <-e.Updates():
			if u.Phase.Terminal() {
				phases[u.SongID] = u.Phase
			}
		case <-deadline:
			t.Fatalf("tasks never finished, saw %v", phases)
		}
	}
	assert.Equal(t, Cancelled, phases["s1"])
	assert.Equal(t, Cancelled, phases["s2"])

	rec, _ := downloads.Get("s1", "luci")
	assert.Nil(t, rec, "a cancelled download leaves no record")
}

func TestCancelledQueueAcceptsNewWork(t *testing.T) {
	started := make(chan struct{}, 1)
	source := &fakeSource{fn: func(ctx context.Context, _, songID string) (*ampache.Stream, error) {
		if songID == "s1" {
			started <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return streamOf("x"), nil
	}}
	e, _ := newTestEngine(t, source, Options{})

	e.Enqueue("albums", "luci", []models.Song{testSong("s1", "Doomed")})
	<-started
	e.CancelAll("albums")

	e.Enqueue("albums", "luci", []models.Song{testSong("s3", "Fresh")})
	assert.Equal(t, Completed, waitTerminal(t, e.Updates(), "s3").Phase)
}

func TestLinearBackoffRetries(t *testing.T) {
	source := &fakeSource{fn: func(context.Context, string, string) (*ampache.Stream, error) {
		return nil, &ampache.StatusError{Code: 503}
	}}
	e, _ := newTestEngine(t, source, Options{MaxAttempts: 3})

	e.Enqueue("albums", "luci", []models.Song{testSong("s1", "Unlucky")})

	retries := 0
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-e.Updates():
			if u.Phase == Retrying {
				retries++
			}
			if u.Phase.Terminal() {
				assert.Equal(t, Failed, u.Phase)
				assert.ErrorIs(t, u.Err, shared.ErrDownloadFailed)
				assert.Equal(t, 2, retries, "three attempts leave two retry notices")
				assert.Equal(t, 3, source.callCount())
				return
			}
		case <-deadline:
			t.Fatal("task never finished")
		}
	}
}

func TestConstraintFailureRetriesThenFails(t *testing.T) {
	source := &fakeSource{fn: func(context.Context, string, string) (*ampache.Stream, error) {
		t.Error("download must not start while constraints fail")
		return nil, &ampache.StatusError{Code: 500}
	}}
	e, _ := newTestEngine(t, source, Options{
		MaxAttempts: 2,
		Constraints: func(string, uint64) error { return shared.ErrStorageLow },
	})

	e.Enqueue("albums", "luci", []models.Song{testSong("s1", "Blocked")})
	final := waitTerminal(t, e.Updates(), "s1")
	assert.Equal(t, Failed, final.Phase)
	assert.ErrorIs(t, final.Err, shared.ErrDownloadFailed)
	assert.Zero(t, source.callCount())
}

func TestIndependentQueues(t *testing.T) {
	block := make(chan struct{})
	source := &fakeSource{fn: func(_ context.Context, _, songID string) (*ampache.Stream, error) {
		if songID == "slow" {
			<-block
		}
		return streamOf("x"), nil
	}}
	e, _ := newTestEngine(t, source, Options{})

	e.Enqueue("albums", "luci", []models.Song{testSong("slow", "Slow")})
	e.Enqueue("singles", "luci", []models.Song{testSong("fast", "Fast")})

	assert.Equal(t, Completed, waitTerminal(t, e.Updates(), "fast").Phase,
		"one queue must not block another")
	close(block)
	waitTerminal(t, e.Updates(), "slow")
}
