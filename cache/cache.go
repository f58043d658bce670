package cache

import (
	"sync"
	"time"
)

// Entry holds cached media bytes with their content type.
type Entry struct {
	Body        []byte
	ContentType string
	createdAt   time.Time
}

// Cache is a simple in-memory TTL cache for relayed media bytes, keyed by
// the exact upstream URL. It is safe for concurrent use.
//
// Expiry is lazy: an entry's age is checked on read and stale entries are
// deleted then, not by a background sweep. Cold entries that are never read
// again therefore stay resident until capacity eviction reclaims them.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*Entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache holding at most maxEntries items for ttl each.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		store:      make(map[string]*Entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get retrieves a cached entry if it exists and is still fresh.
// An expired entry is removed and reported as a miss.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Since(e.createdAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: another reader may have already
		// replaced the entry with a fresh one.
		if cur, still := c.store[key]; still && cur == e {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e, true
}

// Set stores media bytes in the cache. If the cache is at capacity,
// a random entry is evicted to make room (map iteration is random in Go).
func (c *Cache) Set(key string, body []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &Entry{
		Body:        body,
		ContentType: contentType,
		createdAt:   time.Now(),
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
