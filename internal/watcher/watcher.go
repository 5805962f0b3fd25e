// Package watcher turns raw player-clock signals into at-most-one play
// event per listening instance.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacobreesgit/musicmemory/internal/constants"
	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
	"github.com/jacobreesgit/musicmemory/internal/player"
)

// EventStore is the persistence surface the watcher appends to.
type EventStore interface {
	AppendPlayEvent(*domain.PlayEvent) error
}

// PlayLoggedFunc is notified after a play event has been recorded.
type PlayLoggedFunc func(trackID string, completionFraction float64, wasNaturalEnd bool)

// Watcher is the completion-detection state machine. All signal handlers
// serialize on one mutex: a position tick and a track change can never
// interleave a state transition.
type Watcher struct {
	mu       sync.Mutex
	clock    player.Clock
	store    EventStore
	sessions *SessionContext
	log      *logger.Logger

	pollInterval time.Duration

	// Tracking state. At most one play event is emitted per tracking
	// lifetime: logged is a one-way latch.
	tracking     bool
	track        player.TrackInfo
	startTime    time.Time
	lastPosition float64
	logged       bool
	sessionID    string

	foregrounded bool
	state        player.State
	stoppedAt    time.Time

	observers []PlayLoggedFunc
}

// New creates a watcher reading positions from clock and appending play
// events to store.
func New(clock player.Clock, store EventStore, sessions *SessionContext, pollInterval time.Duration, log *logger.Logger) *Watcher {
	if pollInterval <= 0 {
		pollInterval = constants.DefaultPollInterval
	}
	return &Watcher{
		clock:        clock,
		store:        store,
		sessions:     sessions,
		log:          log.WithComponent("watcher"),
		pollInterval: pollInterval,
		foregrounded: true,
		state:        player.StateStopped,
	}
}

// OnPlayLogged registers an observer. Observers are called synchronously in
// registration order after each recorded play.
func (w *Watcher) OnPlayLogged(fn PlayLoggedFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Run drives position polling until ctx is cancelled. Polling is suspended
// while the app is backgrounded; track-change signals still arrive via
// HandleTrackChange.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.HandleTick(time.Now())
		}
	}
}

// HandleTick processes one position sample. If the listened fraction crosses
// the high-completion mark, or the track is within the natural-end window,
// the play is logged immediately so a later skip cannot lose it.
func (w *Watcher) HandleTick(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.foregrounded || !w.tracking {
		return
	}

	// A player stopped for longer than the soft-idle window reports a reset
	// position; sampling it would erase what we observed of the real listen.
	if w.state == player.StateStopped && !w.stoppedAt.IsZero() && now.Sub(w.stoppedAt) > constants.SoftIdleAfterStop {
		return
	}

	w.lastPosition = w.clock.Position()

	// A stream can announce its track before knowing the length; the clock
	// learns the duration from later position reports. Adopt it so the
	// listen can still be evaluated.
	if w.track.Duration <= 0 {
		if current, ok := w.clock.CurrentTrack(); ok && current.TrackID == w.track.TrackID {
			w.track.Duration = current.Duration
		}
	}

	if w.state == player.StatePlaying {
		w.sessions.Touch(now)
	}

	if w.logged || w.track.Duration <= 0 {
		return
	}

	remaining := w.track.Duration - w.lastPosition
	frac := domain.CompletionFraction(w.lastPosition, w.track.Duration)
	if remaining <= constants.NaturalEndRemaining.Seconds() || frac >= constants.HighCompletionFraction {
		w.emitLocked(now, frac, false)
	}
}

// HandleTrackChange evaluates the outgoing track for completion and begins
// tracking the next one. A zero next track transitions to idle.
func (w *Watcher) HandleTrackChange(now time.Time, next player.TrackInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trackChangeLocked(now, next)
}

func (w *Watcher) trackChangeLocked(now time.Time, next player.TrackInfo) {
	if w.tracking && !w.logged {
		w.evaluateOutgoingLocked(now)
	}

	if next.Zero() {
		w.tracking = false
		w.track = player.TrackInfo{}
		w.lastPosition = 0
		w.logged = false
		return
	}

	w.tracking = true
	w.track = next
	w.startTime = now
	w.lastPosition = 0
	w.logged = false
	w.sessionID = w.sessions.SessionFor(now)
}

// evaluateOutgoingLocked applies the track-change completion rules: a
// natural end (<=5s remaining with at least half heard) or the
// high-completion fallback (>=80% heard). Anything else was abandoned early
// and is not counted.
func (w *Watcher) evaluateOutgoingLocked(now time.Time) {
	if w.track.Duration <= 0 {
		// Unknown duration: skipped from accounting, not an error.
		w.log.Debug("skipping completion evaluation, unknown duration", "track_id", w.track.TrackID)
		return
	}

	remaining := w.track.Duration - w.lastPosition
	frac := domain.CompletionFraction(w.lastPosition, w.track.Duration)

	naturalEnd := remaining <= constants.NaturalEndRemaining.Seconds() && frac >= constants.NaturalEndMinFraction
	if naturalEnd || frac >= constants.HighCompletionFraction {
		w.emitLocked(now, frac, naturalEnd)
	}
}

// emitLocked records the play. The logged latch is set before persistence:
// a failed append degrades to "no event recorded" rather than risking a
// duplicate on the next signal.
func (w *Watcher) emitLocked(now time.Time, frac float64, naturalEnd bool) {
	w.logged = true

	event := &domain.PlayEvent{
		ID:                 uuid.NewString(),
		TrackID:            w.track.TrackID,
		ReleaseID:          w.track.ReleaseID,
		PerformerID:        w.track.PerformerID,
		Timestamp:          now,
		PlayDuration:       w.lastPosition,
		CompletionFraction: frac,
		Source:             w.track.Source,
		SessionID:          w.sessionID,
	}

	if err := w.store.AppendPlayEvent(event); err != nil {
		w.log.Error("failed to append play event", "track_id", w.track.TrackID, "error", err)
		return
	}

	w.sessions.LogTrack(now, w.track.TrackID)
	w.log.Info("play logged",
		"track_id", w.track.TrackID,
		"completion", frac,
		"natural_end", naturalEnd)

	for _, fn := range w.observers {
		fn(w.track.TrackID, frac, naturalEnd)
	}
}

// HandleStateChange records the playback state. A stop longer than the soft
// idle window only pauses session activity; it never emits an event.
func (w *Watcher) HandleStateChange(now time.Time, s player.State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = s
	if s == player.StateStopped {
		w.stoppedAt = now
	} else if s.IsActive() {
		w.sessions.Touch(now)
	}
}

// HandleBackground suspends position polling. Track-change signals remain
// the only completion source until foregrounded.
func (w *Watcher) HandleBackground(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.foregrounded = false
}

// HandleForeground resumes polling and reconciles against the clock: if the
// current track differs from the tracked one, the missed track change is
// synthesized.
func (w *Watcher) HandleForeground(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.foregrounded = true

	current, ok := w.clock.CurrentTrack()
	switch {
	case !ok && w.tracking:
		w.trackChangeLocked(now, player.TrackInfo{})
	case ok && (!w.tracking || current.TrackID != w.track.TrackID):
		w.trackChangeLocked(now, current)
	}
}

// Tracking reports whether a track is currently being watched, and which.
func (w *Watcher) Tracking() (player.TrackInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.track, w.tracking
}
