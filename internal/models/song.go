package models

// Song is the descriptor for a playable track, as returned by the server.
type Song struct {
	MediaID     string         `json:"media_id"`
	Title       string         `json:"title"`
	Artist      MusicAttribute `json:"artist"`
	Album       MusicAttribute `json:"album"`
	AlbumArtist MusicAttribute `json:"album_artist"`
	Genre       []MusicAttribute `json:"genre,omitempty"`
	SongURL     string         `json:"song_url"`
	ImageURL    string         `json:"image_url"`
	Filename    string         `json:"filename"`
	Bitrate     int            `json:"bitrate"`
	Channels    int            `json:"channels"`
	Mime        string         `json:"mime,omitempty"`
	Format      string         `json:"format,omitempty"`
	Disk        int            `json:"disk"`
	Composer    string         `json:"composer,omitempty"`
	RateHz      int            `json:"rate_hz"`
	Size        int64          `json:"size"`
	Time        int            `json:"time"`
	TrackNumber int            `json:"track_number"`
	Year        int            `json:"year"`
}

// DownloadedSong records a song that was fetched for offline playback,
// keyed by media id and scoped to the user that downloaded it.
type DownloadedSong struct {
	MediaID      string
	Owner        string // username the download belongs to
	Title        string
	ArtistID     string
	ArtistName   string
	AlbumID      string
	AlbumName    string
	SongURI      string // local file path
	ImageURL     string
	Bitrate      int
	Channels     int
	Mime         string
	Format       string
	Size         int64
	Time         int
	TrackNumber  int
	Year         int
	RelativePath string
}

// ToDownloaded builds the offline record for a song stored at localURI.
func (s Song) ToDownloaded(owner, localURI string) DownloadedSong {
	return DownloadedSong{
		MediaID:      s.MediaID,
		Owner:        owner,
		Title:        s.Title,
		ArtistID:     s.Artist.ID,
		ArtistName:   s.Artist.Name,
		AlbumID:      s.Album.ID,
		AlbumName:    s.Album.Name,
		SongURI:      localURI,
		ImageURL:     s.ImageURL,
		Bitrate:      s.Bitrate,
		Channels:     s.Channels,
		Mime:         s.Mime,
		Format:       s.Format,
		Size:         s.Size,
		Time:         s.Time,
		TrackNumber:  s.TrackNumber,
		Year:         s.Year,
		RelativePath: s.Filename,
	}
}
