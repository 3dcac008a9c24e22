// package models defines the data model for the ampwave Ampache client.
//
// The persisted stores (see internal/store) are the sole long-lived owners of
// Credentials, Session, User and cached library state. Anything held in memory
// is a read optimization of store content and must never be treated as
// authoritative.
package models

import "time"

// Credentials is the persisted login tuple for a server. There is a single
// row per device: it is overwritten before every authorization attempt so any
// request-signing layer can read the latest values, and cleared on logout.
type Credentials struct {
	Username     string
	PasswordHash string // sha256 of the password, never the raw password
	ServerURL    string
	APIToken     string // static API key, empty when using the hash handshake
}

// Session is a server-issued auth token plus its expiry, the unit of "being
// logged in". Created or overwritten by a successful handshake, read before
// every authenticated call, cleared on logout or unrecoverable account errors.
type Session struct {
	Auth          string
	APIVersion    string
	SessionExpire time.Time
	Update        time.Time
	Add           time.Time
	Clean         time.Time
	Songs         int
	Albums        int
	Artists       int
	Playlists     int
	Videos        int
}

// IsExpired reports whether the session token has passed its expiry.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.SessionExpire)
}

// Valid reports whether the session can authenticate a request: a non-empty
// token that has not expired.
func (s Session) Valid(now time.Time) bool {
	return s.Auth != "" && !s.IsExpired(now)
}

// ServerInfo is the result of the last successful ping. It is ephemeral,
// in-memory only, and replaced wholesale on every ping.
type ServerInfo struct {
	Server        string
	Version       string
	Compatibility string
}

// User is the account record for the logged-in user. The local store is the
// source of truth; the record is overwritten from the remote user endpoint
// whenever the auth token changes, never merged field by field.
type User struct {
	ID             string
	Username       string
	Email          string
	Access         int
	StreamToken    string
	FullNamePublic int
	Disabled       bool
	CreateDate     int64
	LastSeen       int64
	Website        string
	State          string
	City           string
}

// Genre is a cached library genre.
type Genre struct {
	ID        string
	Name      string
	Albums    int
	Artists   int
	Songs     int
	Playlists int
}

// MusicAttribute is an id/name pair used for artist, album and genre
// attribution on songs.
type MusicAttribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
