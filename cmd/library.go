package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ampwave/ampwave/internal/reconciler"
)

// LibraryGenres lists genres from the local cache, optionally refreshing
// from the server first.
func (r *Runner) LibraryGenres(ctx context.Context, cmd *cli.Command) error {
	final := reconciler.Final(r.rec.FetchGenres(ctx, cmd.Bool("refresh")))
	if final.Kind == reconciler.KindError {
		return fmt.Errorf("failed to fetch genres: %w", final.Err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(final.Data, true)
	}
	if len(final.Data) == 0 {
		return r.writePlain("No genres cached. Try --refresh.\n")
	}
	for _, g := range final.Data {
		r.writePlain("%-30s %5d songs %5d albums\n", g.Name, g.Songs, g.Albums)
	}
	return r.writePlain("\n%d genres\n", len(final.Data))
}

// LibraryPlaylists lists playlists from the local cache.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	final := reconciler.Final(r.rec.FetchPlaylists(ctx, cmd.Bool("refresh")))
	if final.Kind == reconciler.KindError {
		return fmt.Errorf("failed to fetch playlists: %w", final.Err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(final.Data, true)
	}
	if len(final.Data) == 0 {
		return r.writePlain("No playlists cached. Try --refresh.\n")
	}
	for _, p := range final.Data {
		marker := " "
		if p.Flag.Set() {
			marker = "♥"
		}
		r.writePlain("%s %-40s %5d items  %s\n", marker, p.Name, p.Items, p.Owner)
	}
	return r.writePlain("\n%d playlists\n", len(final.Data))
}

// LibrarySong prints one song descriptor fetched from the server.
func (r *Runner) LibrarySong(ctx context.Context, cmd *cli.Command) error {
	songID := cmd.StringArg("id")
	if songID == "" {
		return fmt.Errorf("song id required")
	}

	sess, err := r.rec.AutoLogin(ctx)
	if err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	song, err := r.client.GetSong(ctx, sess.Auth, songID)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	r.writePlain("%s - %s (%s)\n", song.Artist.Name, song.Title, song.Album.Name)
	return r.writePlain("%ds • %d kbps • %s\n", song.Time, song.Bitrate/1000, song.Mime)
}

func libraryCommand(r *Runner) *cli.Command {
	refreshFlag := &cli.BoolFlag{Name: "refresh", Aliases: []string{"r"}, Usage: "Refresh from the server before listing"}
	jsonFlag := &cli.BoolFlag{Name: "json", Usage: "Output as JSON"}

	return &cli.Command{
		Name:  "library",
		Usage: "Browse the cached music library",
		Commands: []*cli.Command{
			{
				Name:   "genres",
				Usage:  "List genres",
				Flags:  []cli.Flag{refreshFlag, jsonFlag},
				Action: r.LibraryGenres,
			},
			{
				Name:   "playlists",
				Usage:  "List playlists",
				Flags:  []cli.Flag{refreshFlag, jsonFlag},
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "song",
				Usage: "Show one song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id", UsageText: "Song id"},
				},
				Flags:  []cli.Flag{jsonFlag},
				Action: r.LibrarySong,
			},
		},
	}
}
