package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ampwave/ampwave/internal/ampache"
	"github.com/ampwave/ampwave/internal/reconciler"
	"github.com/ampwave/ampwave/internal/shared"
	"github.com/ampwave/ampwave/internal/store"
	"github.com/ampwave/ampwave/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	db     *sql.DB
	stores *store.Stores
	client ampache.API
	rec    *reconciler.Reconciler
	engine *tasks.Engine
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	DB     *sql.DB
	Client ampache.API
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	stores := store.New(opts.DB)
	if opts.Client == nil {
		// the server saved at login wins over the config file, so a login
		// against a new server takes effect immediately
		configURL := opts.Config.Server.URL
		opts.Client = ampache.NewClientResolver(func() string {
			if creds, err := stores.Credentials.Get(); err == nil && creds != nil && creds.ServerURL != "" {
				return creds.ServerURL
			}
			return configURL
		}, nil)
	}
	rec := reconciler.New(opts.Client, stores, opts.Logger)

	source, _ := opts.Client.(tasks.SongSource)
	engine := tasks.NewEngine(source, func(ctx context.Context) (string, error) {
		sess, err := rec.AutoLogin(ctx)
		if err != nil {
			return "", err
		}
		return sess.Auth, nil
	}, stores.Downloads, opts.Logger, tasks.Options{
		Dir:          opts.Config.Downloads.Dir,
		RateLimit:    opts.Config.Downloads.RateLimit,
		Backoff:      opts.Config.Downloads.BackoffDuration(),
		MaxAttempts:  opts.Config.Downloads.MaxAttempts,
		MinFreeBytes: uint64(opts.Config.Downloads.MinFreeBytes),
	})

	return &Runner{
		config: opts.Config,
		db:     opts.DB,
		stores: stores,
		client: opts.Client,
		rec:    rec,
		engine: engine,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger swaps the logger, used by the TUI to redirect output to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Shutdown stops background workers and closes the database.
func (r *Runner) Shutdown() {
	r.engine.Close()
	r.rec.Close()
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, downloadCommand, settingsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
