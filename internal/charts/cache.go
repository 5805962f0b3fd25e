package charts

import (
	"sync"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
)

type cacheKey struct {
	entityType domain.EntityType
	start      string
	end        string
}

type cacheEntry struct {
	chart    *domain.Chart
	cachedAt time.Time
}

// Cache memoizes computed charts for a short TTL. Expiry is the only
// invalidation: new play events do not evict entries, so freshness-sensitive
// callers use Expire before recomputing.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached chart when present and fresh. The same *Chart is
// handed to every caller inside the TTL window.
func (c *Cache) Get(entityType domain.EntityType, start, end time.Time) (*domain.Chart, bool) {
	key := makeKey(entityType, start, end)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.cachedAt) >= c.ttl {
		return nil, false
	}
	return entry.chart, true
}

// Put replaces the entry for the chart's key. Replacement is atomic under
// the write lock; readers never observe a partial entry.
func (c *Cache) Put(chart *domain.Chart) {
	key := makeKey(chart.EntityType, chart.Start, chart.End)

	c.mu.Lock()
	c.entries[key] = cacheEntry{chart: chart, cachedAt: c.now()}
	c.mu.Unlock()
}

// Expire drops one entry regardless of age.
func (c *Cache) Expire(entityType domain.EntityType, start, end time.Time) {
	key := makeKey(entityType, start, end)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}

func makeKey(entityType domain.EntityType, start, end time.Time) cacheKey {
	return cacheKey{
		entityType: entityType,
		start:      start.Format("2006-01-02"),
		end:        end.Format("2006-01-02"),
	}
}
