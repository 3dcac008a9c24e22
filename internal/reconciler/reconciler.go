// package reconciler owns the authorization and session lifecycle and the
// cache-first read path of the client.
//
// The local stores are the single source of truth: every operation here
// persists to the store first or re-reads from it before returning, so
// callers never hold state the database does not. The remote client is
// stateless; this package decides when it is consulted.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ampwave/ampwave/internal/ampache"
	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/observe"
	"github.com/ampwave/ampwave/internal/shared"
	"github.com/ampwave/ampwave/internal/store"
)

// AuthRequest is the input to Authorize. An empty APIToken selects the
// hash-challenge handshake; a non-empty one selects static-key auth and
// Password is ignored.
type AuthRequest struct {
	Username  string
	Password  string
	ServerURL string
	APIToken  string
}

// Reconciler coordinates the remote API and the local stores.
type Reconciler struct {
	api    ampache.API
	stores *store.Stores
	log    *log.Logger
	now    func() time.Time
	report func(error)

	// ServerInfo publishes the result of the most recent successful ping.
	ServerInfo *observe.Value[models.ServerInfo]
	// Messages publishes user-facing error messages produced by the
	// classifier. Suppressed conditions never appear here.
	Messages *observe.Value[string]
	// Tokens publishes the current session token, distinct-until-changed.
	// The user-refresh worker consumes it; external consumers may too.
	Tokens *observe.Value[string]
	// UserRefreshErrors receives failures of the background user refresh.
	// The refresh is best-effort: an error here never fails the
	// authorization that triggered it.
	UserRefreshErrors <-chan error

	refreshErrs chan error
	cancelSub   func()
	wg          sync.WaitGroup
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the time source. Tests use this to pin expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithReporter sets a callback invoked with every classified, non-suppressed
// error before its message is published.
func WithReporter(report func(error)) Option {
	return func(r *Reconciler) { r.report = report }
}

// New creates a Reconciler and starts its user-refresh worker. Call Close
// when done.
func New(api ampache.API, stores *store.Stores, logger *log.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:         api,
		stores:      stores,
		log:         logger,
		now:         time.Now,
		report:      func(error) {},
		ServerInfo:  observe.New[models.ServerInfo](),
		Messages:    observe.New[string](),
		Tokens:      observe.NewDistinct[string](),
		refreshErrs: make(chan error, 8),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.UserRefreshErrors = r.refreshErrs

	tokens, cancel := r.Tokens.Subscribe()
	r.cancelSub = cancel
	r.wg.Add(1)
	go r.refreshUserLoop(tokens)
	return r
}

// Close stops the user-refresh worker and closes the observables.
func (r *Reconciler) Close() {
	r.cancelSub()
	r.wg.Wait()
	r.Tokens.Close()
	r.ServerInfo.Close()
	r.Messages.Close()
	close(r.refreshErrs)
}

// Authorize logs in with explicit credentials. The credentials are persisted
// before any network call, so the stored row always reflects the latest
// attempt even when the handshake fails. The handshake itself is forced:
// an existing session never short-circuits an explicit login.
func (r *Reconciler) Authorize(ctx context.Context, req AuthRequest) (*models.Session, error) {
	creds := models.Credentials{
		Username:  req.Username,
		ServerURL: req.ServerURL,
		APIToken:  req.APIToken,
	}
	if req.APIToken == "" {
		creds.PasswordHash = shared.SHA256Hex(req.Password)
	}
	if err := r.stores.Credentials.Put(creds); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}
	sess, err := r.tryAuthorize(ctx, true)
	if err != nil {
		r.classify("authorize", err)
		return nil, err
	}
	return sess, nil
}

// AutoLogin re-establishes a session from stored credentials. Fails with
// [shared.ErrMissingCredentials] when none were ever stored; that failure is
// a normal cold-start condition and is not surfaced as an error message.
func (r *Reconciler) AutoLogin(ctx context.Context) (*models.Session, error) {
	sess, err := r.tryAuthorize(ctx, false)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingCredentials) {
			r.classify("auto-login", err)
		}
		return nil, err
	}
	return sess, nil
}

// tryAuthorize is the session state machine. A stored, unexpired session is
// returned without network I/O unless force is set; otherwise a handshake in
// the mode the stored credentials select replaces it. The returned session is
// always re-read from the store after a successful persist.
func (r *Reconciler) tryAuthorize(ctx context.Context, force bool) (*models.Session, error) {
	sess, err := r.stores.Sessions.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !force && sess != nil && sess.Valid(r.now()) {
		r.Tokens.Set(sess.Auth)
		return sess, nil
	}

	creds, err := r.stores.Credentials.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds == nil {
		return nil, shared.ErrMissingCredentials
	}

	var resp *ampache.HandshakeResponse
	if creds.APIToken != "" {
		r.log.Debug("handshake with api token", "server", creds.ServerURL)
		resp, err = r.api.HandshakeToken(ctx, creds.APIToken)
	} else {
		ts := r.now().Unix()
		challenge := shared.HandshakeChallenge(ts, creds.PasswordHash)
		r.log.Debug("handshake with hash challenge", "user", creds.Username, "server", creds.ServerURL)
		resp, err = r.api.Handshake(ctx, creds.Username, challenge, ts)
	}
	if err != nil {
		return nil, err
	}
	if resp.Auth == "" {
		return nil, shared.ErrAuthFailed
	}

	newSess, err := resp.Session()
	if err != nil {
		return nil, fmt.Errorf("malformed handshake response: %w", err)
	}
	if err := r.stores.Sessions.Put(newSess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	stored, err := r.stores.Sessions.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to re-read session: %w", err)
	}
	if stored == nil {
		return nil, shared.ErrSessionMissing
	}
	r.log.Info("session established", "expires", stored.SessionExpire)
	r.Tokens.Set(stored.Auth)
	return stored, nil
}

// Ping checks server reachability and extends the session when one is
// stored. A ping that reaches the server always succeeds; if the session
// refresh part of the response is missing or malformed the stored session is
// cleared, because a token the server no longer acknowledges must not be
// presented again. The returned session is the one current after the ping,
// nil when none survives.
func (r *Reconciler) Ping(ctx context.Context) (models.ServerInfo, *models.Session, error) {
	sess, err := r.stores.Sessions.Get()
	if err != nil {
		return models.ServerInfo{}, nil, fmt.Errorf("failed to read session: %w", err)
	}
	token := ""
	if sess != nil {
		token = sess.Auth
	}

	resp, err := r.api.Ping(ctx, token)
	if err != nil {
		r.classify("ping", err)
		return models.ServerInfo{}, nil, err
	}

	info := resp.ServerInfo()
	r.ServerInfo.Set(info)

	if token == "" {
		return info, nil, nil
	}

	refreshed, rerr := resp.Session()
	if rerr != nil || refreshed.Auth == "" {
		r.log.Warn("session refresh failed, clearing stored session", "err", rerr)
		if cerr := r.stores.Sessions.Clear(); cerr != nil {
			return info, nil, fmt.Errorf("failed to clear stale session: %w", cerr)
		}
		return info, nil, nil
	}
	// keep library counters from the stored session; ping does not
	// report them
	refreshed.Songs = sess.Songs
	refreshed.Albums = sess.Albums
	refreshed.Artists = sess.Artists
	refreshed.Playlists = sess.Playlists
	refreshed.Videos = sess.Videos
	if err := r.stores.Sessions.Put(refreshed); err != nil {
		return info, nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}
	r.Tokens.Set(refreshed.Auth)

	stored, err := r.stores.Sessions.Get()
	if err != nil {
		return info, nil, fmt.Errorf("failed to re-read session: %w", err)
	}
	return info, stored, nil
}

// Logout tears down the session. The remote goodbye is best-effort: a
// refusal or an unreachable server is logged and local state is cleared
// regardless, so Logout never fails for remote reasons.
func (r *Reconciler) Logout(ctx context.Context) error {
	sess, err := r.stores.Sessions.Get()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if sess != nil && sess.Auth != "" {
		ok, gerr := r.api.Goodbye(ctx, sess.Auth)
		if gerr != nil {
			r.log.Warn("goodbye failed", "err", gerr)
		} else if !ok {
			r.log.Warn("server did not acknowledge goodbye")
		}
	}
	return r.clearLocalState()
}

// Register creates a new account on the server. The password is hashed
// before it leaves the process, and the credentials are persisted before the
// network call so the stored row reflects the attempt like Authorize does.
func (r *Reconciler) Register(ctx context.Context, serverURL, username, password, email, fullName string) error {
	passwordHash := shared.SHA256Hex(password)
	creds := models.Credentials{
		Username:     username,
		ServerURL:    serverURL,
		PasswordHash: passwordHash,
	}
	if err := r.stores.Credentials.Put(creds); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	if err := r.api.Register(ctx, username, passwordHash, email, fullName); err != nil {
		r.classify("register", err)
		return err
	}
	r.log.Info("account registered", "user", username)
	return nil
}

// CurrentUser returns the locally stored account record, nil when absent.
func (r *Reconciler) CurrentUser() (*models.User, error) {
	return r.stores.Users.Get()
}

// CurrentSession returns the stored session, nil when absent.
func (r *Reconciler) CurrentSession() (*models.Session, error) {
	return r.stores.Sessions.Get()
}

func (r *Reconciler) clearLocalState() error {
	if err := r.stores.Sessions.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := r.stores.Credentials.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if err := r.stores.Users.Clear(); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	if err := r.stores.ClearCachedData(); err != nil {
		return fmt.Errorf("failed to clear cached data: %w", err)
	}
	r.log.Info("local auth state cleared")
	return nil
}

// forceLogout clears local auth state in response to an account-category
// server error. Unlike Logout it never talks to the server: the server has
// already rejected the credentials.
func (r *Reconciler) forceLogout(label string) {
	r.log.Warn("account error, clearing local state", "op", label)
	if err := r.clearLocalState(); err != nil {
		r.log.Error("failed to clear local state", "err", err)
	}
}

// refreshUserLoop fetches the account record whenever the session token
// changes. Failures are reported on UserRefreshErrors and never propagate to
// the operation that changed the token.
func (r *Reconciler) refreshUserLoop(tokens <-chan string) {
	defer r.wg.Done()
	for token := range tokens {
		if token == "" {
			continue
		}
		creds, err := r.stores.Credentials.Get()
		if err != nil || creds == nil || creds.Username == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		user, err := r.api.GetUser(ctx, token, creds.Username)
		cancel()
		if err != nil {
			r.log.Warn("user refresh failed", "err", err)
			select {
			case r.refreshErrs <- err:
			default:
			}
			continue
		}
		if err := r.stores.Users.Put(*user); err != nil {
			r.log.Error("failed to persist user", "err", err)
			select {
			case r.refreshErrs <- err:
			default:
			}
		}
	}
}
