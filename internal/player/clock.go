// Package player defines the boundary to the host media player: the clock
// that reports the current track and position, and the typed signals that
// drive the completion watcher.
package player

import "github.com/jacobreesgit/musicmemory/internal/domain"

// TrackInfo identifies the track the player reports as current.
type TrackInfo struct {
	TrackID     string            `json:"track_id"`
	ReleaseID   string            `json:"release_id"`
	PerformerID string            `json:"performer_id"`
	Duration    float64           `json:"duration"` // seconds; 0 means unknown
	Source      domain.PlaySource `json:"source"`
}

// Zero reports whether no track is set.
func (t TrackInfo) Zero() bool {
	return t.TrackID == ""
}

// Clock exposes the player's current track and playback position. Duration
// travels with TrackInfo since it is a property of the track being played.
type Clock interface {
	CurrentTrack() (TrackInfo, bool)
	Position() float64 // seconds into the current track
}
