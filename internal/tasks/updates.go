package tasks

import "fmt"

// ProgressUpdate represents a progress event for one download task.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	TaskID  string // Download task identifier
	Queue   string // Queue the task belongs to
	SongID  string // Media id of the song being downloaded
	Phase   Phase  // Task phase
	Percent int    // 0-100, monotonic within a task attempt
	Message string // Human-readable message for display
	Err     error  // Set on Failed updates
}

// Phase enumerates the states a download task moves through.
type Phase int

const (
	Queued Phase = iota
	Downloading
	Retrying
	Completed
	Failed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Queued:
		return "queued"
	case Downloading:
		return "downloading"
	case Retrying:
		return "retrying"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a task; no further updates follow.
func (p Phase) Terminal() bool {
	return p == Completed || p == Failed || p == Cancelled
}

func queuedUpdate(t task) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Queued,
		Message: fmt.Sprintf("Queued: %s", t.song.Title),
	}
}

func downloadingUpdate(t task, percent int) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Downloading,
		Percent: percent,
		Message: fmt.Sprintf("[%d%%] %s", percent, t.song.Title),
	}
}

func retryingUpdate(t task, attempt, max int, err error) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Retrying,
		Message: fmt.Sprintf("Attempt %d/%d failed: %v", attempt, max, err),
	}
}

func completedUpdate(t task, path string) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Completed,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s", path),
	}
}

func failedUpdate(t task, err error) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Failed,
		Message: fmt.Sprintf("Failed: %s", t.song.Title),
		Err:     err,
	}
}

func cancelledUpdate(t task) ProgressUpdate {
	return ProgressUpdate{
		TaskID:  t.id,
		Queue:   t.queue,
		SongID:  t.song.MediaID,
		Phase:   Cancelled,
		Message: fmt.Sprintf("Cancelled: %s", t.song.Title),
	}
}
