package ampache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(action string, r *http.Request, w http.ResponseWriter)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPath {
			http.NotFound(w, r)
			return
		}
		handler(r.URL.Query().Get("action"), r, w)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client())
}

func TestHandshake(t *testing.T) {
	t.Run("hash mode sends challenge and timestamp", func(t *testing.T) {
		var gotAuth, gotUser, gotTS string
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			require.Equal(t, "handshake", action)
			q := r.URL.Query()
			gotAuth, gotUser, gotTS = q.Get("auth"), q.Get("user"), q.Get("timestamp")
			w.Write([]byte(`{"auth":"tok-1","api":"6.3.0","session_expire":"2026-03-01T12:00:00Z","songs":10}`))
		})

		resp, err := c.Handshake(context.Background(), "luci", "challenge-hex", 1700000000)
		require.NoError(t, err)
		assert.Equal(t, "challenge-hex", gotAuth)
		assert.Equal(t, "luci", gotUser)
		assert.Equal(t, "1700000000", gotTS)
		assert.Equal(t, "tok-1", resp.Auth)

		sess, err := resp.Session()
		require.NoError(t, err)
		assert.Equal(t, "tok-1", sess.Auth)
		assert.Equal(t, 10, sess.Songs)
		assert.False(t, sess.SessionExpire.IsZero())
	})

	t.Run("token mode omits user", func(t *testing.T) {
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			assert.Empty(t, r.URL.Query().Get("user"))
			assert.Equal(t, "api-key-1", r.URL.Query().Get("auth"))
			w.Write([]byte(`{"auth":"tok-2","session_expire":"2026-03-01T12:00:00Z"}`))
		})

		resp, err := c.HandshakeToken(context.Background(), "api-key-1")
		require.NoError(t, err)
		assert.Equal(t, "tok-2", resp.Auth)
	})

	t.Run("error envelope becomes ServerError", func(t *testing.T) {
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			w.Write([]byte(`{"error":{"errorCode":4701,"errorMessage":"Session Expired"}}`))
		})

		_, err := c.Handshake(context.Background(), "luci", "x", 1)
		var se *ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 4701, se.Code)
		assert.Equal(t, CategoryAccount, se.Category())
	})

	t.Run("string error code tolerated", func(t *testing.T) {
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			w.Write([]byte(`{"error":{"errorCode":"4704","errorMessage":"Not Found"}}`))
		})

		_, err := c.Handshake(context.Background(), "luci", "x", 1)
		var se *ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, CategoryEmpty, se.Category())
	})
}

func TestServerNotConfigured(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.Ping(context.Background(), "")
	assert.ErrorIs(t, err, ErrServerNotConfigured)

	_, err = c.DownloadSong(context.Background(), "t", "1")
	assert.ErrorIs(t, err, ErrServerNotConfigured)
}

func TestServerURLResolvedPerRequest(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.Write([]byte(`{"server":"ampache","version":"6.3.0"}`))
	}))
	t.Cleanup(srv.Close)

	target := ""
	c := NewClientResolver(func() string { return target }, srv.Client())

	_, err := c.Ping(context.Background(), "")
	require.ErrorIs(t, err, ErrServerNotConfigured)
	assert.False(t, hit)

	// a URL saved after construction takes effect on the next call
	target = srv.URL
	resp, err := c.Ping(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "ampache", resp.Server)
}

func TestPing(t *testing.T) {
	t.Run("anonymous ping has no auth param", func(t *testing.T) {
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			_, present := r.URL.Query()["auth"]
			assert.False(t, present)
			w.Write([]byte(`{"server":"ampache","version":"6.3.0","compatible":"350001"}`))
		})

		resp, err := c.Ping(context.Background(), "")
		require.NoError(t, err)
		info := resp.ServerInfo()
		assert.Equal(t, "ampache", info.Server)

		_, err = resp.Session()
		assert.Error(t, err, "ping without refresh fields cannot rebuild a session")
	})

	t.Run("authenticated ping refreshes session", func(t *testing.T) {
		c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
			assert.Equal(t, "tok-1", r.URL.Query().Get("auth"))
			w.Write([]byte(`{"server":"ampache","version":"6.3.0","auth":"tok-1","session_expire":"2026-03-01T12:00:00Z"}`))
		})

		resp, err := c.Ping(context.Background(), "tok-1")
		require.NoError(t, err)
		sess, err := resp.Session()
		require.NoError(t, err)
		assert.Equal(t, "tok-1", sess.Auth)
	})
}

func TestGoodbye(t *testing.T) {
	c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		require.Equal(t, "goodbye", action)
		w.Write([]byte(`{"success":false}`))
	})

	ok, err := c.Goodbye(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetGenres(t *testing.T) {
	c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		w.Write([]byte(`{"genre":[{"id":"1","name":"Ambient","songs":12},{"id":"2","name":"Jazz","songs":40}]}`))
	})

	genres, err := c.GetGenres(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Ambient", genres[0].Name)
	assert.Equal(t, 40, genres[1].Songs)
}

func TestGetPlaylistsFlagShapes(t *testing.T) {
	c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		assert.Equal(t, "5", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"playlist":[
			{"id":"p1","name":"A","flag":true},
			{"id":"p2","name":"B","flag":1},
			{"id":"p3","name":"C","flag":"odd"}
		]}`))
	})

	playlists, err := c.GetPlaylists(context.Background(), "tok", 5, 0)
	require.NoError(t, err)
	require.Len(t, playlists, 3)
	assert.True(t, playlists[0].Flag.Set())
	assert.True(t, playlists[1].Flag.Set())
	assert.False(t, playlists[2].Flag.Set())
}

func TestHTTPFailure(t *testing.T) {
	c := newTestServer(t, func(action string, r *http.Request, w http.ResponseWriter) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	})

	_, err := c.GetGenres(context.Background(), "tok")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusGatewayTimeout, statusErr.Code)
}

func TestTransportFailure(t *testing.T) {
	// point at a closed server
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewClient(srv.URL, nil)

	_, err := c.Ping(context.Background(), "")
	var te *TransportError
	assert.True(t, errors.As(err, &te), "expected TransportError, got %v", err)
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name string
		err  ServerError
		want ErrorCategory
	}{
		{"invalid handshake", ServerError{Code: 4701}, CategoryAccount},
		{"access denied", ServerError{Code: 4703}, CategoryAccount},
		{"not found", ServerError{Code: 4704}, CategoryEmpty},
		{"duplicate by message", ServerError{Code: 4710, Message: "Duplicate entry"}, CategoryDuplicate},
		{"system", ServerError{Code: 5001}, CategorySystem},
		{"other", ServerError{Code: 4710, Message: "bad request"}, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Category())
		})
	}
}
