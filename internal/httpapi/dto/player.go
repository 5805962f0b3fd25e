package dto

import (
	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/player"
)

// TickRequest is one position sample from the remote player.
type TickRequest struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

func (r *TickRequest) Validate() []ValidationError {
	var errs []ValidationError
	if r.Position < 0 {
		errs = append(errs, ValidationError{Field: "position", Message: "must not be negative"})
	}
	if r.Duration < 0 {
		errs = append(errs, ValidationError{Field: "duration", Message: "must not be negative"})
	}
	return errs
}

// TrackRequest signals a track change. An empty track_id means playback
// moved to nothing (idle).
type TrackRequest struct {
	TrackID     string  `json:"track_id"`
	ReleaseID   string  `json:"release_id"`
	PerformerID string  `json:"performer_id"`
	Duration    float64 `json:"duration"`
	Source      string  `json:"source"`
}

func (r *TrackRequest) Validate() []ValidationError {
	var errs []ValidationError
	if r.Duration < 0 {
		errs = append(errs, ValidationError{Field: "duration", Message: "must not be negative"})
	}
	switch r.Source {
	case "", string(domain.SourceLocal), string(domain.SourceStreamed):
	default:
		errs = append(errs, ValidationError{Field: "source", Message: "must be one of: local, streamed"})
	}
	return errs
}

// TrackInfo converts the request to the watcher's track shape.
func (r *TrackRequest) TrackInfo() player.TrackInfo {
	source := domain.PlaySource(r.Source)
	if source == "" {
		source = domain.SourceLocal
	}
	return player.TrackInfo{
		TrackID:     r.TrackID,
		ReleaseID:   r.ReleaseID,
		PerformerID: r.PerformerID,
		Duration:    r.Duration,
		Source:      source,
	}
}

// StateRequest signals a playback-state change.
type StateRequest struct {
	State string `json:"state"`
}

func (r *StateRequest) Validate() []ValidationError {
	switch r.State {
	case "playing", "paused", "stopped":
		return nil
	default:
		return []ValidationError{{Field: "state", Message: "must be one of: playing, paused, stopped"}}
	}
}

// LifecycleRequest signals an app-lifecycle change.
type LifecycleRequest struct {
	Phase string `json:"phase"`
}

func (r *LifecycleRequest) Validate() []ValidationError {
	switch player.LifecyclePhase(r.Phase) {
	case player.PhaseForegrounded, player.PhaseBackgrounded:
		return nil
	default:
		return []ValidationError{{Field: "phase", Message: "must be one of: foregrounded, backgrounded"}}
	}
}
