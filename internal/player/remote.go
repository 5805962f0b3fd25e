package player

import "sync"

// RemoteClock is a Clock fed by pushed signals rather than read from a local
// player process. The HTTP signal handlers update it, and the watcher reads
// it on each poll.
type RemoteClock struct {
	mu       sync.RWMutex
	track    TrackInfo
	hasTrack bool
	position float64
}

func NewRemoteClock() *RemoteClock {
	return &RemoteClock{}
}

// SetTrack records the track the remote player reports as current.
func (c *RemoteClock) SetTrack(t TrackInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track = t
	c.hasTrack = !t.Zero()
	c.position = 0
}

// SetPosition records the latest reported position. When the reported
// duration changes (the remote learned it late), the track info is updated
// in place.
func (c *RemoteClock) SetPosition(position, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	if duration > 0 {
		c.track.Duration = duration
	}
}

// ClearTrack transitions the clock to the idle state.
func (c *RemoteClock) ClearTrack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track = TrackInfo{}
	c.hasTrack = false
	c.position = 0
}

func (c *RemoteClock) CurrentTrack() (TrackInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.track, c.hasTrack
}

func (c *RemoteClock) Position() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

var _ Clock = (*RemoteClock)(nil)
