// package ampache implements the stateless remote client for the Ampache
// JSON API: authorization handshake, ping, account and library listing
// endpoints, and song download.
//
// The client holds no session state. Callers pass the auth token on every
// call; session lifecycle lives in internal/reconciler.
package ampache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ampwave/ampwave/internal/models"
)

const (
	apiPath    = "/server/json.server.php"
	apiVersion = "6.3.0"

	defaultTimeout = 30 * time.Second
)

// API is the remote surface the reconciler and download queue depend on.
// *Client is the production implementation; tests substitute fakes.
type API interface {
	Handshake(ctx context.Context, username, authHash string, timestamp int64) (*HandshakeResponse, error)
	HandshakeToken(ctx context.Context, apiToken string) (*HandshakeResponse, error)
	Ping(ctx context.Context, authToken string) (*PingResponse, error)
	Goodbye(ctx context.Context, authToken string) (bool, error)
	Register(ctx context.Context, username, passwordHash, email, fullName string) error
	GetUser(ctx context.Context, authToken, username string) (*models.User, error)
	GetGenres(ctx context.Context, authToken string) ([]models.Genre, error)
	GetPlaylists(ctx context.Context, authToken string, offset, limit int) ([]models.Playlist, error)
	GetSong(ctx context.Context, authToken, songID string) (*models.Song, error)
	DownloadSong(ctx context.Context, authToken, songID string) (*Stream, error)
}

// Stream is an open song download: the caller owns Body and must close it.
type Stream struct {
	Body io.ReadCloser
	Size int64 // -1 when the server did not send a length
	Mime string
}

// Client talks to an Ampache server over HTTP with fixed transport timeouts.
// The server base URL is resolved per request, so a URL persisted after the
// client was built takes effect without rebuilding it.
type Client struct {
	resolve    func() string
	httpClient *http.Client
}

// NewClient creates a Client pinned to the given server base URL. An empty
// URL is allowed at construction time; every call will then fail with
// [ErrServerNotConfigured] before any I/O.
func NewClient(baseURL string, client *http.Client) *Client {
	return NewClientResolver(func() string { return baseURL }, client)
}

// NewClientResolver creates a Client that looks up the server base URL on
// every request. An empty resolved URL fails the call with
// [ErrServerNotConfigured] before any I/O.
func NewClientResolver(resolve func() string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{resolve: resolve, httpClient: client}
}

func (c *Client) base() (string, error) {
	base := strings.TrimRight(c.resolve(), "/")
	if base == "" {
		return "", ErrServerNotConfigured
	}
	return base, nil
}

// Handshake performs the hash-challenge authorization:
// auth = sha256(timestamp + sha256(password)), bound to the timestamp so a
// captured challenge cannot be replayed.
func (c *Client) Handshake(ctx context.Context, username, authHash string, timestamp int64) (*HandshakeResponse, error) {
	params := url.Values{
		"action":    {"handshake"},
		"auth":      {authHash},
		"user":      {username},
		"timestamp": {strconv.FormatInt(timestamp, 10)},
		"version":   {apiVersion},
	}
	var resp HandshakeResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandshakeToken performs authorization with a static API key.
func (c *Client) HandshakeToken(ctx context.Context, apiToken string) (*HandshakeResponse, error) {
	params := url.Values{
		"action":  {"handshake"},
		"auth":    {apiToken},
		"version": {apiVersion},
	}
	var resp HandshakeResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping reports server metadata and, when called with a valid token, extends
// the session. Tolerates an empty token.
func (c *Client) Ping(ctx context.Context, authToken string) (*PingResponse, error) {
	params := url.Values{"action": {"ping"}}
	if authToken != "" {
		params.Set("auth", authToken)
	}
	var resp PingResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Goodbye invalidates the session server-side. The boolean is the server's
// acknowledgement; callers treat a false as log-worthy, not fatal.
func (c *Client) Goodbye(ctx context.Context, authToken string) (bool, error) {
	params := url.Values{"action": {"goodbye"}, "auth": {authToken}}
	var resp goodbyeResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Register creates a new account on servers that allow it.
func (c *Client) Register(ctx context.Context, username, passwordHash, email, fullName string) error {
	params := url.Values{
		"action":   {"register"},
		"username": {username},
		"password": {passwordHash},
		"email":    {email},
	}
	if fullName != "" {
		params.Set("fullname", fullName)
	}
	var resp successResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &ServerError{Code: codeBadRequest, Message: "registration rejected by server"}
	}
	return nil
}

// GetUser fetches the account record for username.
func (c *Client) GetUser(ctx context.Context, authToken, username string) (*models.User, error) {
	params := url.Values{
		"action":   {"user"},
		"auth":     {authToken},
		"username": {username},
	}
	var dto userDTO
	if err := c.call(ctx, params, &dto); err != nil {
		return nil, err
	}
	u := dto.toUser()
	return &u, nil
}

// GetGenres lists all genres.
func (c *Client) GetGenres(ctx context.Context, authToken string) ([]models.Genre, error) {
	params := url.Values{"action": {"genres"}, "auth": {authToken}}
	var resp genresResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	genres := make([]models.Genre, 0, len(resp.Genres))
	for i := range resp.Genres {
		genres = append(genres, resp.Genres[i].toGenre())
	}
	return genres, nil
}

// GetPlaylists lists playlists with pagination. An empty page at a non-zero
// offset signals the end of the collection.
func (c *Client) GetPlaylists(ctx context.Context, authToken string, offset, limit int) ([]models.Playlist, error) {
	params := url.Values{
		"action": {"playlists"},
		"auth":   {authToken},
		"offset": {strconv.Itoa(offset)},
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp playlistsResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	playlists := make([]models.Playlist, 0, len(resp.Playlists))
	for i := range resp.Playlists {
		playlists = append(playlists, resp.Playlists[i].toPlaylist())
	}
	return playlists, nil
}

// GetSong fetches one song descriptor by id.
func (c *Client) GetSong(ctx context.Context, authToken, songID string) (*models.Song, error) {
	params := url.Values{
		"action": {"song"},
		"auth":   {authToken},
		"filter": {songID},
	}
	var dto songDTO
	if err := c.call(ctx, params, &dto); err != nil {
		return nil, err
	}
	s := dto.toSong()
	return &s, nil
}

// DownloadSong opens the raw audio stream for a song. The caller must close
// the returned body.
func (c *Client) DownloadSong(ctx context.Context, authToken, songID string) (*Stream, error) {
	base, err := c.base()
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"action": {"download"},
		"auth":   {authToken},
		"id":     {songID},
		"type":   {"song"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+apiPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Op: "build download request", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "download song", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	// an error envelope can come back with status 200 and a JSON content type
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		var env errorEnvelope
		if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
			return nil, env.Error.toServerError()
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return &Stream{
		Body: resp.Body,
		Size: resp.ContentLength,
		Mime: resp.Header.Get("Content-Type"),
	}, nil
}

// call performs a GET against the JSON API and decodes the response into out,
// surfacing transport failures, HTTP failures and server error envelopes as
// their respective typed errors.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	base, err := c.base()
	if err != nil {
		return err
	}

	endpoint := base + apiPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: fmt.Sprintf("call %s", params.Get("action")), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return env.Error.toServerError()
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}
