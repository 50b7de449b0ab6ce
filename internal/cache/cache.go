// Package cache stores recent generation results keyed by request
// fingerprint, so identical requests within the TTL replay the
// original outcome instead of calling the generator again.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/anvramos/adforge/internal/model"
)

type entry struct {
	record    model.GenerationRecord
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a TTL and capacity bounded fingerprint cache.
type Cache struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	entries    map[string]entry
}

// New creates a cache. Non-positive arguments fall back to a 5 minute
// TTL and 100 entries.
func New(defaultTTL time.Duration, maxEntries int) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &Cache{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		entries:    make(map[string]entry),
	}
}

// Get returns the cached record for the fingerprint. An entry past its
// expiry reads as a miss and is removed.
func (c *Cache) Get(fingerprint string) (model.GenerationRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok {
		return model.GenerationRecord{}, false
	}
	if !time.Now().Before(e.expiresAt) {
		delete(c.entries, fingerprint)
		return model.GenerationRecord{}, false
	}
	return e.record, true
}

// Put stores the record under the fingerprint for the given TTL
// (the cache default when non-positive). When the cache is full the
// oldest stored entry is evicted first.
func (c *Cache) Put(fingerprint string, record model.GenerationRecord, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[fingerprint]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[fingerprint] = entry{
		record:    record,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Size returns the number of stored entries, including expired ones
// not yet swept.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor sweeps expired entries every interval until the context
// is cancelled.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
