// Package cache holds recently scraped vehicle records keyed by
// listing URL, so repeated lookups of the same listing skip the
// browser entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/importar-info/importador/models"
)

// entry holds a cached record with its creation timestamp.
type entry struct {
	car       *models.CarData
	createdAt time.Time
}

// Cache is an in-memory TTL cache for vehicle records. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache with the given capacity and entry lifetime. A
// background goroutine periodically evicts expired entries.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
	go c.cleanupLoop()
	return c
}

// Key derives a cache key from the listing URL. Trailing slashes and
// case differences in the host do not produce separate entries.
func Key(rawURL string) string {
	normalized := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// Get retrieves a cached record if it exists and has not expired.
func (c *Cache) Get(key string) (*models.CarData, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.car, true
}

// Set stores a record. Records without usable data are not cached, so
// a transiently blocked page gets retried on the next request. If the
// cache is at capacity, a random entry is evicted to make room.
func (c *Cache) Set(key string, car *models.CarData) {
	if car == nil || car.Source == models.SourceError {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random in Go.
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		car:       car,
		createdAt: time.Now(),
	}
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
