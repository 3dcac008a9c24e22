package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/shared"
)

// SettingsShow prints the per-user preferences of the logged-in user.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.stores.Credentials.Get()
	if err != nil {
		return err
	}
	if creds == nil {
		return shared.ErrMissingCredentials
	}

	settings, err := r.stores.Settings.Get(creds.Username)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}
	r.writePlain("User:              %s\n", settings.Username)
	r.writePlain("Theme:             %s\n", settings.Theme)
	r.writePlain("Streaming quality: %s\n", settings.StreamingQuality)
	r.writePlain("Smart download:    %v\n", settings.SmartDownload)
	r.writePlain("Auto updates:      %v\n", settings.EnableAutoUpdates)
	return r.writePlain("Remote logging:    %v\n", settings.EnableRemoteLogging)
}

// SettingsSet updates one or more preferences for the logged-in user.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.stores.Credentials.Get()
	if err != nil {
		return err
	}
	if creds == nil {
		return shared.ErrMissingCredentials
	}

	settings, err := r.stores.Settings.Get(creds.Username)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if cmd.IsSet("quality") {
		q := cmd.String("quality")
		switch q {
		case models.QualityLow, models.QualityMedium, models.QualityHigh:
			settings.StreamingQuality = q
		default:
			return fmt.Errorf("%w: quality must be low, medium or high", shared.ErrInvalidInput)
		}
	}
	if cmd.IsSet("theme") {
		settings.Theme = cmd.String("theme")
	}
	if cmd.IsSet("smart-download") {
		settings.SmartDownload = cmd.Bool("smart-download")
	}
	if cmd.IsSet("auto-updates") {
		settings.EnableAutoUpdates = cmd.Bool("auto-updates")
	}

	if err := r.stores.Settings.Put(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return r.writePlain("✓ Settings saved\n")
}

func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change per-user preferences",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print current preferences",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Update preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "quality", Usage: "Streaming quality: low, medium, high"},
					&cli.StringFlag{Name: "theme", Usage: "UI theme name"},
					&cli.BoolFlag{Name: "smart-download", Usage: "Download played songs automatically"},
					&cli.BoolFlag{Name: "auto-updates", Usage: "Refresh library collections on login"},
				},
				Action: r.SettingsSet,
			},
		},
	}
}
