package player

// State represents the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// ParseState maps a wire value to a State. Unknown values read as stopped.
func ParseState(v string) State {
	switch v {
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	default:
		return StateStopped
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// LifecyclePhase is an app-lifecycle signal from the host.
type LifecyclePhase string

const (
	PhaseForegrounded LifecyclePhase = "foregrounded"
	PhaseBackgrounded LifecyclePhase = "backgrounded"
)
