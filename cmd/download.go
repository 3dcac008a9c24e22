package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/shared"
	"github.com/ampwave/ampwave/internal/tasks"
)

// DownloadSongs queues the given song ids for download and streams progress
// until every task reaches a terminal state.
func (r *Runner) DownloadSongs(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one song id required", shared.ErrMissingArgument)
	}
	queue := cmd.String("queue")

	sess, err := r.rec.AutoLogin(ctx)
	if err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	creds, err := r.stores.Credentials.Get()
	if err != nil || creds == nil {
		return shared.ErrMissingCredentials
	}

	songs := make([]models.Song, 0, len(ids))
	for _, id := range ids {
		song, err := r.client.GetSong(ctx, sess.Auth, id)
		if err != nil {
			return fmt.Errorf("failed to fetch song %s: %w", id, err)
		}
		songs = append(songs, *song)
	}

	taskIDs := r.engine.Enqueue(queue, creds.Username, songs)
	r.logger.Info("downloads queued", "queue", queue, "count", len(taskIDs))

	remaining := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		remaining[id] = true
	}
	failed := 0
	for update := range r.engine.Updates() {
		if !remaining[update.TaskID] {
			continue
		}
		r.writePlain("%s\n", update.Message)
		if update.Phase.Terminal() {
			if update.Phase != tasks.Completed {
				failed++
			}
			delete(remaining, update.TaskID)
			if len(remaining) == 0 {
				break
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d downloads failed", shared.ErrDownloadFailed, failed, len(taskIDs))
	}
	return r.writePlain("✓ %d songs downloaded\n", len(taskIDs))
}

// DownloadCancel cancels every task in the named queue.
func (r *Runner) DownloadCancel(ctx context.Context, cmd *cli.Command) error {
	queue := cmd.String("queue")
	r.engine.CancelAll(queue)
	return r.writePlain("✓ Queue %q cancelled\n", queue)
}

// DownloadList prints the offline song records of the logged-in user.
func (r *Runner) DownloadList(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.stores.Credentials.Get()
	if err != nil {
		return err
	}
	if creds == nil {
		return shared.ErrMissingCredentials
	}

	downloads, err := r.stores.Downloads.List(creds.Username)
	if err != nil {
		return fmt.Errorf("failed to list downloads: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(downloads, true)
	}
	if len(downloads) == 0 {
		return r.writePlain("No downloaded songs.\n")
	}
	for _, d := range downloads {
		r.writePlain("%-40s %-25s %s\n", d.Title, d.ArtistName, d.SongURI)
	}
	return r.writePlain("\n%d songs offline\n", len(downloads))
}

func downloadCommand(r *Runner) *cli.Command {
	queueFlag := &cli.StringFlag{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Queue name; songs added to a busy queue run after it drains",
		Value:   "default",
	}

	return &cli.Command{
		Name:  "download",
		Usage: "Download songs for offline playback",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "Queue songs by id and wait for completion",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "ids", Min: 0, Max: -1},
				},
				Flags:  []cli.Flag{queueFlag},
				Action: r.DownloadSongs,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel all tasks in a queue",
				Flags:  []cli.Flag{queueFlag},
				Action: r.DownloadCancel,
			},
			{
				Name:  "list",
				Usage: "List downloaded songs",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.DownloadList,
			},
		},
	}
}
