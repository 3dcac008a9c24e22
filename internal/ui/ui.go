// package ui implements the interactive library browser.
//
// The browser shows the cached genre and playlist collections, lets the user
// trigger a remote refresh, and surfaces classifier messages in a footer.
// All data flows through the reconciler; the TUI never talks to the server
// directly.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ampwave/ampwave/internal/models"
	"github.com/ampwave/ampwave/internal/reconciler"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GenreListView ViewState = iota
	PlaylistListView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	rec    *reconciler.Reconciler
	view   ViewState
	width  int
	height int

	genreList    list.Model
	playlistList list.Model
	loaded       bool
	loading      bool
	footer       string
	err          error

	msgCh     <-chan string
	cancelMsg func()

	help help.Model
	keys keyMap
}

type genresLoadedMsg struct {
	genres []models.Genre
	err    error
}

type playlistsLoadedMsg struct {
	playlists []models.Playlist
	err       error
}

type footerMsg string

// NewModel creates a new TUI model backed by the reconciler.
func NewModel(ctx context.Context, rec *reconciler.Reconciler) *Model {
	msgCh, cancel := rec.Messages.Subscribe()
	return &Model{
		ctx:       ctx,
		rec:       rec,
		view:      GenreListView,
		msgCh:     msgCh,
		cancelMsg: cancel,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads both collections from cache and starts the message listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadGenres(false), m.loadPlaylists(false), m.waitForMessage())
}

// loadGenres drains a genre fetch and reports its final state.
func (m *Model) loadGenres(refresh bool) tea.Cmd {
	return func() tea.Msg {
		final := reconciler.Final(m.rec.FetchGenres(m.ctx, refresh))
		if final.Kind == reconciler.KindError {
			return genresLoadedMsg{err: final.Err}
		}
		return genresLoadedMsg{genres: final.Data}
	}
}

func (m *Model) loadPlaylists(refresh bool) tea.Cmd {
	return func() tea.Msg {
		final := reconciler.Final(m.rec.FetchPlaylists(m.ctx, refresh))
		if final.Kind == reconciler.KindError {
			return playlistsLoadedMsg{err: final.Err}
		}
		return playlistsLoadedMsg{playlists: final.Data}
	}
}

// waitForMessage forwards the next classifier message into the footer.
func (m *Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgCh
		if !ok {
			return nil
		}
		return footerMsg(msg)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.genreList.SetSize(msg.Width-4, msg.Height-8)
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancelMsg()
			return m, tea.Quit
		case "tab":
			if m.view == GenreListView {
				m.view = PlaylistListView
			} else {
				m.view = GenreListView
			}
			return m, nil
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.footer = "Refreshing..."
			if m.view == GenreListView {
				return m, m.loadGenres(true)
			}
			return m, m.loadPlaylists(true)
		}

	case genresLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.genres))
		for i, g := range msg.genres {
			items[i] = genreItem{genre: g}
		}
		m.genreList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.genreList.Title = "Genres"
		m.genreList.SetSize(m.width-4, m.height-8)
		m.loaded = true
		return m, nil

	case playlistsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.playlists))
		for i, p := range msg.playlists {
			items[i] = playlistItem{playlist: p}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case footerMsg:
		m.footer = string(msg)
		return m, m.waitForMessage()
	}

	if !m.loaded {
		return m, nil
	}
	var cmd tea.Cmd
	if m.view == GenreListView {
		m.genreList, cmd = m.genreList.Update(msg)
	} else {
		m.playlistList, cmd = m.playlistList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.loaded {
		return styles.help.Render("Loading library...")
	}

	var body string
	if m.view == GenreListView {
		body = m.genreList.View()
	} else {
		body = m.playlistList.View()
	}

	footer := ""
	if m.footer != "" {
		footer = "\n" + styles.warn.Render(m.footer)
	}
	return body + footer + "\n" + m.help.View(m.keys)
}
