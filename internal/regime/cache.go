package regime

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/halpertlabs/flightdeck/internal/models"
)

// DefaultTTL is the longest a cached classification may be served.
const DefaultTTL = 60 * time.Minute

type cacheEntry struct {
	classification models.RegimeClassification
	storedAt       time.Time
}

// Cache holds per-underlying regime classifications with a TTL. Concurrent
// lookups for the same underlying collapse to one computation via per-key
// single-flight; different underlyings never serialize on each other.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

// NewCache returns a Cache with the given TTL. Non-positive TTLs use
// DefaultTTL; TTLs above DefaultTTL are clamped to it.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 || ttl > DefaultTTL {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrCompute returns the cached classification for key when fresh, and
// otherwise runs compute exactly once per key regardless of how many
// callers are waiting on it.
func (c *Cache) GetOrCompute(key string, compute func() (models.RegimeClassification, error)) (models.RegimeClassification, error) {
	if rc, ok := c.lookup(key); ok {
		return rc, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have populated the entry while this caller
		// queued on the key.
		if rc, ok := c.lookup(key); ok {
			return rc, nil
		}

		rc, err := compute()
		if err != nil {
			return models.RegimeClassification{}, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{classification: rc, storedAt: c.now()}
		c.mu.Unlock()
		return rc, nil
	})
	if err != nil {
		return models.RegimeClassification{}, err
	}
	return v.(models.RegimeClassification), nil
}

// Invalidate drops the cached classification for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) lookup(key string) (models.RegimeClassification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.storedAt) > c.ttl {
		return models.RegimeClassification{}, false
	}
	return entry.classification, true
}
