package reconciler

import (
	"context"
	"errors"

	"github.com/ampwave/ampwave/internal/ampache"
	"github.com/ampwave/ampwave/internal/models"
)

// emissionCap bounds the number of values one fetch can emit: Loading(on),
// cached Success, refreshed Success or Error, Loading(off). The channel is
// buffered to this size so the producer goroutine never blocks on a consumer
// that stopped reading.
const emissionCap = 4

// fetchSpec wires one cached collection into the generic fetch: a local
// read, a remote list call and a clear-plus-bulk-insert writer.
type fetchSpec[T any] struct {
	label  string
	read   func() ([]T, error)
	remote func(ctx context.Context, token string) ([]T, error)
	write  func([]T) error
}

// fetchList runs the cache-first read path for one collection.
//
// It emits Loading(on) and, when the cache holds rows, those rows as a
// Success. A non-empty cache satisfies a no-refresh call outright; an empty
// cache always goes to the server, so a first run can populate it even
// without refresh. The remote path establishes a session, calls the server,
// replaces the cached set wholesale and emits a Success whose Data is
// re-read from the store and whose NetworkData is the raw remote payload.
// Every failure, local or remote, is classified exactly once; unless
// suppressed it terminates the stream with an Error and no trailing
// Loading(off). Non-error sequences close with Loading(off).
func fetchList[T any](ctx context.Context, r *Reconciler, spec fetchSpec[T], refresh bool) <-chan Resource[[]T] {
	out := make(chan Resource[[]T], emissionCap)
	go func() {
		defer close(out)
		out <- loading[[]T](true)

		cached, err := spec.read()
		if err != nil {
			r.classify(spec.label, err)
			out <- failure[[]T](err)
			return
		}
		if len(cached) > 0 {
			out <- success(cached, nil)
			if !refresh {
				out <- loading[[]T](false)
				return
			}
		}

		sess, err := r.tryAuthorize(ctx, false)
		if err != nil {
			if errors.Is(err, ampache.ErrServerNotConfigured) {
				r.log.Debug("no server configured, cache only", "collection", spec.label)
				out <- loading[[]T](false)
				return
			}
			r.classify(spec.label, err)
			out <- failure[[]T](err)
			return
		}

		fresh, err := spec.remote(ctx, sess.Auth)
		if err != nil {
			if _, suppressed := r.classify(spec.label, err); suppressed {
				out <- loading[[]T](false)
				return
			}
			out <- failure[[]T](err)
			return
		}

		if err := spec.write(fresh); err != nil {
			r.classify(spec.label, err)
			out <- failure[[]T](err)
			return
		}
		local, err := spec.read()
		if err != nil {
			r.classify(spec.label, err)
			out <- failure[[]T](err)
			return
		}
		out <- success(local, &fresh)
		out <- loading[[]T](false)
	}()
	return out
}

// FetchGenres reads genres cache-first, refreshing from the server when
// refresh is set.
func (r *Reconciler) FetchGenres(ctx context.Context, refresh bool) <-chan Resource[[]models.Genre] {
	return fetchList(ctx, r, fetchSpec[models.Genre]{
		label: "genres",
		read:  r.stores.Genres.List,
		remote: func(ctx context.Context, token string) ([]models.Genre, error) {
			return r.api.GetGenres(ctx, token)
		},
		write: func(genres []models.Genre) error {
			if err := r.stores.Genres.Clear(); err != nil {
				return err
			}
			return r.stores.Genres.Upsert(genres)
		},
	}, refresh)
}

// FetchPlaylists reads playlists cache-first. A refresh pages through the
// remote collection from offset zero until an empty page.
func (r *Reconciler) FetchPlaylists(ctx context.Context, refresh bool) <-chan Resource[[]models.Playlist] {
	const pageSize = 100
	return fetchList(ctx, r, fetchSpec[models.Playlist]{
		label: "playlists",
		read:  r.stores.Playlists.List,
		remote: func(ctx context.Context, token string) ([]models.Playlist, error) {
			var all []models.Playlist
			for offset := 0; ; offset += pageSize {
				page, err := r.api.GetPlaylists(ctx, token, offset, pageSize)
				if err != nil {
					return nil, err
				}
				all = append(all, page...)
				if len(page) < pageSize {
					return all, nil
				}
			}
		},
		write: func(playlists []models.Playlist) error {
			if err := r.stores.Playlists.Clear(); err != nil {
				return err
			}
			return r.stores.Playlists.Upsert(playlists)
		},
	}, refresh)
}
