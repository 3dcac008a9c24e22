package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionMissing   = fmt.Errorf("no session after authorization")
	ErrTokenExpired     = fmt.Errorf("auth token expired")

	// Library and download errors
	ErrSongNotFound     = fmt.Errorf("song not found")
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrQueueCancelled   = fmt.Errorf("download queue cancelled")
	ErrStorageLow       = fmt.Errorf("storage critically low")
	ErrNetworkRequired  = fmt.Errorf("network unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
