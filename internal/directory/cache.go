package directory

import (
	"sync"
	"time"

	"github.com/emRival/GASHub/internal/models"
)

type cacheEntry struct {
	endpoint  *models.Endpoint
	expiresAt time.Time
}

// Cache is the per-alias endpoint cache. Only successful lookups are
// stored, so new aliases resolve immediately while deactivations take
// up to the TTL to reach repeater traffic. A TTL of zero disables it.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(alias string) (*models.Endpoint, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[alias]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.endpoint, true
}

func (c *Cache) Set(alias string, endpoint *models.Endpoint) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[alias] = cacheEntry{
		endpoint:  endpoint,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
