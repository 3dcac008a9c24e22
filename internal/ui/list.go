package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ampwave/ampwave/internal/models"
)

var (
	_ list.Item = genreItem{}
	_ list.Item = playlistItem{}
)

// genreItem wraps [models.Genre] to implement [list.Item].
type genreItem struct {
	genre models.Genre
}

func (i genreItem) FilterValue() string { return i.genre.Name }
func (i genreItem) Title() string       { return i.genre.Name }
func (i genreItem) Description() string {
	return fmt.Sprintf("%d songs • %d albums • %d artists",
		i.genre.Songs, i.genre.Albums, i.genre.Artists)
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d items", i.playlist.Items)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	if i.playlist.Flag.Set() {
		desc = fmt.Sprintf("%s • ♥", desc)
	}
	return desc
}
