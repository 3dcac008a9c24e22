package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ampwave/ampwave/internal/reconciler"
	"github.com/ampwave/ampwave/internal/shared"
)

// AuthLogin establishes a session with explicit credentials. With --token a
// static API key is used; otherwise the password handshake.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	req := reconciler.AuthRequest{
		Username:  cmd.String("username"),
		Password:  cmd.String("password"),
		ServerURL: cmd.String("server"),
		APIToken:  cmd.String("token"),
	}
	if req.ServerURL == "" {
		req.ServerURL = r.config.Server.URL
	}
	if req.Username == "" {
		req.Username = r.config.Server.Username
	}
	if req.APIToken == "" && cmd.String("password") == "" {
		req.APIToken = r.config.Server.APIToken
	}
	if req.ServerURL == "" {
		return fmt.Errorf("%w: no server url given or configured", shared.ErrMissingArgument)
	}
	if req.APIToken == "" && (req.Username == "" || req.Password == "") {
		return fmt.Errorf("%w: need --username and --password, or --token", shared.ErrMissingArgument)
	}

	sess, err := r.rec.Authorize(ctx, req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	r.logger.Info("logged in", "expires", sess.SessionExpire)
	return r.writePlain("✓ Logged in, session valid until %s\n",
		sess.SessionExpire.Local().Format(time.RFC1123))
}

// AuthLogout ends the session. Local state is cleared even when the server
// refuses or is unreachable.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.rec.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthRegister creates a new account on the server.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	email := cmd.String("email")
	if username == "" || password == "" || email == "" {
		return fmt.Errorf("%w: --username, --password and --email are required", shared.ErrMissingArgument)
	}
	server := cmd.String("server")
	if server == "" {
		server = r.config.Server.URL
	}
	if server == "" {
		return fmt.Errorf("%w: no server url given or configured", shared.ErrMissingArgument)
	}

	if err := r.rec.Register(ctx, server, username, password, email, cmd.String("fullname")); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return r.writePlain("✓ Account %q registered\n", username)
}

// AuthPing checks server reachability and extends the stored session.
func (r *Runner) AuthPing(ctx context.Context, cmd *cli.Command) error {
	info, sess, err := r.rec.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}
	r.writePlain("✓ Server reachable\n")
	r.writePlain("Server:  %s\n", info.Server)
	r.writePlain("Version: %s\n", info.Version)

	if sess != nil {
		return r.writePlain("Session: valid until %s\n", sess.SessionExpire.Local().Format(time.RFC1123))
	}
	return r.writePlain("Session: none\n")
}

// AuthStatus reports the stored session and account record without touching
// the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.rec.CurrentSession()
	if err != nil {
		return err
	}
	user, err := r.rec.CurrentUser()
	if err != nil {
		return err
	}

	if sess == nil {
		r.writePlain("Session: ✗ not logged in\n")
	} else if sess.IsExpired(time.Now()) {
		r.writePlain("Session: ✗ expired at %s\n", sess.SessionExpire.Local().Format(time.RFC1123))
	} else {
		r.writePlain("Session: ✓ valid until %s\n", sess.SessionExpire.Local().Format(time.RFC1123))
		r.writePlain("Library: %d songs, %d albums, %d artists, %d playlists\n",
			sess.Songs, sess.Albums, sess.Artists, sess.Playlists)
	}

	if user != nil {
		r.writePlain("User:    %s (%s)\n", user.Username, user.Email)
	}
	return nil
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the server session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with a password or API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password"},
					&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Usage: "Ampache server URL"},
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Static API token"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session and clear local state",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create a new account on the server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Usage: "Ampache server URL"},
					&cli.StringFlag{Name: "fullname", Usage: "Display name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "ping",
				Usage: "Check server reachability and extend the session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.AuthPing,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session and account",
				Action: r.AuthStatus,
			},
		},
	}
}
