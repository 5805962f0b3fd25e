package watcher

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

// SessionStore persists listening sessions.
type SessionStore interface {
	SaveSession(*domain.ListeningSession) error
	CloseSession(id string, end time.Time) error
}

// SessionContext owns the current listening session. A session continues
// while activity keeps arriving; an idle gap longer than the configured
// maximum closes it and the next activity starts a fresh one.
type SessionContext struct {
	mu           sync.Mutex
	store        SessionStore
	idleGap      time.Duration
	log          *logger.Logger
	current      *domain.ListeningSession
	lastActivity time.Time
}

func NewSessionContext(store SessionStore, idleGap time.Duration, log *logger.Logger) *SessionContext {
	return &SessionContext{
		store:   store,
		idleGap: idleGap,
		log:     log.WithComponent("sessions"),
	}
}

// SessionFor returns the session ID covering activity at now, rolling over
// to a new session when the idle gap has been exceeded.
func (c *SessionContext) SessionFor(now time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && now.Sub(c.lastActivity) > c.idleGap {
		c.closeCurrentLocked(c.lastActivity)
	}

	if c.current == nil {
		c.current = &domain.ListeningSession{
			ID:        uuid.NewString(),
			StartTime: now,
		}
		if err := c.store.SaveSession(c.current); err != nil {
			c.log.Error("failed to persist new session", "session_id", c.current.ID, "error", err)
		}
		c.log.WithSession(c.current.ID).Debug("session started")
	}

	c.lastActivity = now
	return c.current.ID
}

// Touch records listening activity without logging a track.
func (c *SessionContext) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.lastActivity = now
	}
}

// LogTrack appends a track to the current session's ordered log.
func (c *SessionContext) LogTrack(now time.Time, trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return
	}
	c.lastActivity = now
	c.current.TrackIDs = append(c.current.TrackIDs, trackID)
	if err := c.store.SaveSession(c.current); err != nil {
		c.log.Error("failed to persist session", "session_id", c.current.ID, "error", err)
	}
}

// Current returns a copy of the active session, or nil when none is open.
func (c *SessionContext) Current() *domain.ListeningSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	copied := *c.current
	copied.TrackIDs = append(domain.StringSlice(nil), c.current.TrackIDs...)
	return &copied
}

// CloseIdle closes the current session if its idle gap has elapsed at now.
// Called periodically by the rollup worker and on explicit stop.
func (c *SessionContext) CloseIdle(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && now.Sub(c.lastActivity) > c.idleGap {
		c.closeCurrentLocked(c.lastActivity)
	}
}

// Close ends the current session immediately.
func (c *SessionContext) Close(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.closeCurrentLocked(now)
	}
}

func (c *SessionContext) closeCurrentLocked(end time.Time) {
	if err := c.store.CloseSession(c.current.ID, end); err != nil {
		c.log.Error("failed to close session", "session_id", c.current.ID, "error", err)
	}
	c.log.WithSession(c.current.ID).Debug("session closed")
	c.current = nil
}
