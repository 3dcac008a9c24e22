package ampache

import (
	"encoding/json"
	"time"

	"github.com/ampwave/ampwave/internal/models"
)

// errorEnvelope is the error payload any endpoint may return instead of its
// regular body.
type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    json.Number `json:"errorCode"`
	Message string      `json:"errorMessage"`
}

func (e *errorBody) toServerError() *ServerError {
	code, _ := e.Code.Int64()
	return &ServerError{Code: int(code), Message: e.Message}
}

// HandshakeResponse is the payload of a successful authorize call.
type HandshakeResponse struct {
	Auth          string `json:"auth"`
	API           string `json:"api"`
	SessionExpire string `json:"session_expire"`
	Update        string `json:"update"`
	Add           string `json:"add"`
	Clean         string `json:"clean"`
	Songs         int    `json:"songs"`
	Albums        int    `json:"albums"`
	Artists       int    `json:"artists"`
	Playlists     int    `json:"playlists"`
	Videos        int    `json:"videos"`
}

// Session converts the handshake payload into a domain session. Timestamps
// are RFC3339; a missing or malformed expiry yields an error so callers never
// persist a session whose validity cannot be judged.
func (h *HandshakeResponse) Session() (models.Session, error) {
	expire, err := time.Parse(time.RFC3339, h.SessionExpire)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		Auth:          h.Auth,
		APIVersion:    h.API,
		SessionExpire: expire,
		Update:        parseTimeOrZero(h.Update),
		Add:           parseTimeOrZero(h.Add),
		Clean:         parseTimeOrZero(h.Clean),
		Songs:         h.Songs,
		Albums:        h.Albums,
		Artists:       h.Artists,
		Playlists:     h.Playlists,
		Videos:        h.Videos,
	}, nil
}

// PingResponse is the payload of a ping call. The session refresh fields are
// present only for authenticated pings.
type PingResponse struct {
	Server        string `json:"server"`
	Version       string `json:"version"`
	Compatible    string `json:"compatible"`
	Auth          string `json:"auth,omitempty"`
	SessionExpire string `json:"session_expire,omitempty"`
}

// ServerInfo extracts the always-available server metadata.
func (p *PingResponse) ServerInfo() models.ServerInfo {
	return models.ServerInfo{Server: p.Server, Version: p.Version, Compatibility: p.Compatible}
}

// Session rebuilds a refreshed session from the ping payload. Fails when the
// response carries no refresh fields or a malformed expiry.
func (p *PingResponse) Session() (models.Session, error) {
	expire, err := time.Parse(time.RFC3339, p.SessionExpire)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Auth: p.Auth, APIVersion: p.Version, SessionExpire: expire}, nil
}

// goodbyeResponse acknowledges a session teardown.
type goodbyeResponse struct {
	Success bool `json:"success"`
}

// successResponse acknowledges a registration.
type successResponse struct {
	Success bool `json:"success"`
}

type userDTO struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Access         int    `json:"access"`
	StreamToken    string `json:"streamtoken"`
	FullNamePublic int    `json:"fullname_public"`
	Disabled       bool   `json:"disabled"`
	CreateDate     int64  `json:"create_date"`
	LastSeen       int64  `json:"last_seen"`
	Website        string `json:"website"`
	State          string `json:"state"`
	City           string `json:"city"`
}

func (u *userDTO) toUser() models.User {
	return models.User{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Access:         u.Access,
		StreamToken:    u.StreamToken,
		FullNamePublic: u.FullNamePublic,
		Disabled:       u.Disabled,
		CreateDate:     u.CreateDate,
		LastSeen:       u.LastSeen,
		Website:        u.Website,
		State:          u.State,
		City:           u.City,
	}
}

type genreDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Albums    int    `json:"albums"`
	Artists   int    `json:"artists"`
	Songs     int    `json:"songs"`
	Playlists int    `json:"playlists"`
}

type genresResponse struct {
	Genres []genreDTO `json:"genre"`
}

func (g *genreDTO) toGenre() models.Genre {
	return models.Genre{ID: g.ID, Name: g.Name, Albums: g.Albums, Artists: g.Artists, Songs: g.Songs, Playlists: g.Playlists}
}

type playlistDTO struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Owner string           `json:"owner"`
	Items int              `json:"items"`
	Type  string           `json:"type"`
	Art   string           `json:"art"`
	Flag  models.FlagValue `json:"flag"`
}

type playlistsResponse struct {
	Playlists []playlistDTO `json:"playlist"`
}

func (p *playlistDTO) toPlaylist() models.Playlist {
	return models.Playlist{
		ID:     p.ID,
		Name:   p.Name,
		Owner:  p.Owner,
		Items:  p.Items,
		Type:   p.Type,
		ArtURL: p.Art,
		Flag:   p.Flag,
	}
}

type songDTO struct {
	ID       string                  `json:"id"`
	Title    string                  `json:"title"`
	Artist   models.MusicAttribute   `json:"artist"`
	Album    models.MusicAttribute   `json:"album"`
	Genre    []models.MusicAttribute `json:"genre"`
	URL      string                  `json:"url"`
	Art      string                  `json:"art"`
	Filename string                  `json:"filename"`
	Bitrate  int                     `json:"bitrate"`
	Channels int                     `json:"channels"`
	Mime     string                  `json:"mime"`
	Format   string                  `json:"format"`
	Disk     int                     `json:"disk"`
	Composer string                  `json:"composer"`
	Rate     int                     `json:"rate"`
	Size     int64                   `json:"size"`
	Time     int                     `json:"time"`
	Track    int                     `json:"track"`
	Year     int                     `json:"year"`
}

func (s *songDTO) toSong() models.Song {
	return models.Song{
		MediaID:     s.ID,
		Title:       s.Title,
		Artist:      s.Artist,
		Album:       s.Album,
		Genre:       s.Genre,
		SongURL:     s.URL,
		ImageURL:    s.Art,
		Filename:    s.Filename,
		Bitrate:     s.Bitrate,
		Channels:    s.Channels,
		Mime:        s.Mime,
		Format:      s.Format,
		Disk:        s.Disk,
		Composer:    s.Composer,
		RateHz:      s.Rate,
		Size:        s.Size,
		Time:        s.Time,
		TrackNumber: s.Track,
		Year:        s.Year,
	}
}

func parseTimeOrZero(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
