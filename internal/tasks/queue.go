// package tasks implements the background song download queue.
//
// Downloads are grouped into named queues. Enqueueing into a queue that is
// already working appends to it; running work is never replaced. Each task
// retries failed attempts on a linear backoff schedule and reports progress
// over a channel for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ampwave/ampwave/internal/ampache"
	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/shared"
	"github.com/ampwave/ampwave/internal/store"
)

// SongSource opens the raw audio stream for a song. *ampache.Client
// satisfies it.
type SongSource interface {
	DownloadSong(ctx context.Context, authToken, songID string) (*ampache.Stream, error)
}

// TokenFunc supplies a valid auth token, re-authorizing if necessary.
type TokenFunc func(ctx context.Context) (string, error)

// Options configures an Engine.
type Options struct {
	Dir          string        // Download root directory
	RateLimit    float64       // Download starts per second (default: 2)
	Backoff      time.Duration // Linear backoff unit between attempts (default: 10s)
	MaxAttempts  int           // Attempts per task before giving up (default: 3)
	MinFreeBytes uint64        // Required free space before each attempt
	Constraints  ConstraintFunc
}

func (o *Options) defaults() {
	if o.RateLimit <= 0 {
		o.RateLimit = 2.0
	}
	if o.Backoff <= 0 {
		o.Backoff = 10 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Constraints == nil {
		o.Constraints = DefaultConstraints
	}
}

type task struct {
	id    string
	queue string
	owner string
	song  models.Song
}

// namedQueue holds the pending work of one queue plus the cancel handle of
// its current run.
type namedQueue struct {
	pending []task
	cancel  context.CancelFunc
	running bool
}

// Engine owns every download queue. One worker runs per active queue;
// queues are independent but share the rate limiter.
type Engine struct {
	source    SongSource
	token     TokenFunc
	downloads *store.DownloadStore
	log       *log.Logger
	opts      Options
	limiter   *rate.Limiter
	updates   chan ProgressUpdate

	mu     sync.Mutex
	queues map[string]*namedQueue
	wg     sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewEngine creates a download engine. Call Close to stop all queues.
func NewEngine(source SongSource, token TokenFunc, downloads *store.DownloadStore, logger *log.Logger, opts Options) *Engine {
	opts.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		source:     source,
		token:      token,
		downloads:  downloads,
		log:        logger,
		opts:       opts,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		updates:    make(chan ProgressUpdate, 64),
		queues:     make(map[string]*namedQueue),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Updates returns the progress stream. Updates are dropped, never blocked
// on, when the consumer falls behind.
func (e *Engine) Updates() <-chan ProgressUpdate { return e.updates }

// Enqueue appends songs to the named queue and returns the new task ids.
// If the queue is idle a worker is started; if it is already working the
// tasks run after the ones in flight. Existing work is never displaced.
func (e *Engine) Enqueue(name, owner string, songs []models.Song) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.queues[name]
	if q == nil {
		q = &namedQueue{}
		e.queues[name] = q
	}

	ids := make([]string, 0, len(songs))
	for _, song := range songs {
		t := task{id: shared.GenerateID(), queue: name, owner: owner, song: song}
		q.pending = append(q.pending, t)
		ids = append(ids, t.id)
		e.send(queuedUpdate(t))
	}

	if !q.running && len(q.pending) > 0 {
		ctx, cancel := context.WithCancel(e.baseCtx)
		q.cancel = cancel
		q.running = true
		e.wg.Add(1)
		go e.run(ctx, name)
	}
	return ids
}

// CancelAll cancels the named queue: the running task is interrupted and
// pending tasks are dropped, each with a Cancelled update.
func (e *Engine) CancelAll(name string) {
	e.mu.Lock()
	q := e.queues[name]
	var dropped []task
	if q != nil {
		dropped = q.pending
		q.pending = nil
		if q.cancel != nil {
			q.cancel()
		}
	}
	e.mu.Unlock()

	for _, t := range dropped {
		e.send(cancelledUpdate(t))
	}
	if q != nil {
		e.log.Info("queue cancelled", "queue", name, "dropped", len(dropped))
	}
}

// Close cancels every queue and waits for the workers to exit.
func (e *Engine) Close() {
	e.baseCancel()
	e.wg.Wait()
	close(e.updates)
}

// run is the worker for one queue. It drains the pending list and exits
// when the queue is empty or its context is cancelled; a later Enqueue
// starts a fresh run.
func (e *Engine) run(ctx context.Context, name string) {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		q := e.queues[name]
		if q == nil || len(q.pending) == 0 || ctx.Err() != nil {
			if q != nil {
				q.running = false
				q.cancel = nil
				// work enqueued after a cancel continues under a fresh context
				if ctx.Err() != nil && e.baseCtx.Err() == nil && len(q.pending) > 0 {
					next, cancel := context.WithCancel(e.baseCtx)
					q.cancel = cancel
					q.running = true
					e.wg.Add(1)
					go e.run(next, name)
				}
			}
			e.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		e.mu.Unlock()

		e.process(ctx, t)
	}
}

// process runs one task to a terminal update, retrying with linear backoff:
// the delay before attempt n+1 is n times the backoff unit.
func (e *Engine) process(ctx context.Context, t task) {
	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			e.send(cancelledUpdate(t))
			return
		}

		lastErr = e.attempt(ctx, t)
		if lastErr == nil {
			return
		}
		if ctx.Err() != nil {
			e.send(cancelledUpdate(t))
			return
		}

		e.log.Warn("download attempt failed", "song", t.song.MediaID,
			"attempt", attempt, "err", lastErr)
		if attempt < e.opts.MaxAttempts {
			e.send(retryingUpdate(t, attempt, e.opts.MaxAttempts, lastErr))
			select {
			case <-time.After(time.Duration(attempt) * e.opts.Backoff):
			case <-ctx.Done():
				e.send(cancelledUpdate(t))
				return
			}
		}
	}
	e.send(failedUpdate(t, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, lastErr)))
}

// attempt performs a single download try: constraint check, stream open,
// copy to a temp file, rename into place, record in the store.
func (e *Engine) attempt(ctx context.Context, t task) error {
	dir := filepath.Join(e.opts.Dir, t.owner)
	if err := e.opts.Constraints(dir, e.opts.MinFreeBytes); err != nil {
		return err
	}

	token, err := e.token(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire auth token: %w", err)
	}

	stream, err := e.source.DownloadSong(ctx, token, t.song.MediaID)
	if err != nil {
		return err
	}
	defer stream.Body.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	path := filepath.Join(dir, localFilename(t.song))
	tmp, err := os.CreateTemp(dir, ".ampwave-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	e.send(downloadingUpdate(t, 0))
	if err := e.copyWithProgress(ctx, t, tmp, stream); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush download: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	if err := e.downloads.Add(t.song.ToDownloaded(t.owner, path)); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	e.log.Info("song downloaded", "song", t.song.MediaID, "path", path)
	e.send(completedUpdate(t, path))
	return nil
}

// copyWithProgress copies the stream to w, emitting Downloading updates as
// whole percent steps pass. With an unknown stream size only the initial and
// final percentages are reported.
func (e *Engine) copyWithProgress(ctx context.Context, t task, w io.Writer, stream *ampache.Stream) error {
	buf := make([]byte, 32*1024)
	var written int64
	lastPercent := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := stream.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write download: %w", werr)
			}
			written += int64(n)
			if stream.Size > 0 {
				percent := int(written * 100 / stream.Size)
				if percent > 100 {
					percent = 100
				}
				if percent >= lastPercent+5 {
					lastPercent = percent
					e.send(downloadingUpdate(t, percent))
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// send delivers an update without blocking. A full channel drops the update.
func (e *Engine) send(u ProgressUpdate) {
	select {
	case e.updates <- u:
	default:
	}
}

// localFilename picks the on-disk name for a song: the server-side file
// name when known, otherwise artist and title with the format as extension.
func localFilename(s models.Song) string {
	if s.Filename != "" {
		return sanitize(filepath.Base(s.Filename))
	}
	ext := s.Format
	if ext == "" {
		ext = "mp3"
	}
	return sanitize(fmt.Sprintf("%s - %s.%s", s.Artist.Name, s.Title, ext))
}

// sanitize makes a string safe for use as a path segment.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
