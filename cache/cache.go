package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/vidopen/models"
)

// entry holds a cached resolution with its creation timestamp.
type entry struct {
	response  models.ResolveResponse
	createdAt time.Time
}

// Cache is an in-memory cache of successful resolve responses.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries responses.
// A background goroutine runs every 5 minutes to evict entries older
// than 1 hour.
func New(maxEntries int) *Cache {
	c := newCache(maxEntries)
	go c.cleanupLoop()
	return c
}

func newCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key identifies a resolution by page URL, selector and fetch mode. An http
// fetch and a browser render of the same page may yield different documents.
func Key(pageURL, xpath, fetchMode string) string {
	h := sha256.New()
	h.Write([]byte(pageURL))
	h.Write([]byte("|"))
	h.Write([]byte(xpath))
	h.Write([]byte("|"))
	h.Write([]byte(fetchMode))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached response if it is younger than maxAgeMs.
// A non-positive maxAgeMs skips the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ResolveResponse, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	maxAge := time.Duration(maxAgeMs) * time.Millisecond
	if c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}

	resp := e.response
	return &resp, true
}

// Set stores a copy of resp. If the cache is at capacity, a random entry
// is evicted to make room.
func (c *Cache) Set(key string, resp *models.ResolveResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		response:  *resp,
		createdAt: c.now(),
	}
}

// Len reports the number of cached responses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) evictBefore(cutoff time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		c.evictBefore(c.now().Add(-1 * time.Hour))
	}
}
