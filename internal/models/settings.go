package models

// Streaming quality presets, stored per user.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// LocalSettings are per-username client preferences. They live only in the
// local store and survive logout of other users on the same device.
type LocalSettings struct {
	Username            string
	Theme               string
	EnableRemoteLogging bool
	SmartDownload       bool
	EnableAutoUpdates   bool
	StreamingQuality    string
}

// DefaultSettings returns the settings row created for a user on first login.
func DefaultSettings(username string) LocalSettings {
	return LocalSettings{
		Username:         username,
		Theme:            "dark",
		StreamingQuality: QualityHigh,
	}
}
