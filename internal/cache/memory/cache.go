// Package memory provides a process-local snapshot cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Mile1005/seo-audit-sub010/internal/serp"
)

type entry struct {
	snapshot serp.Snapshot
	storedAt time.Time
}

// Cache is an in-memory TTL cache keyed by snapshot key. Entries are never
// refreshed on read (no sliding expiration) and there is no eviction beyond
// the TTL check; unbounded key growth is an accepted tradeoff for a
// process-local cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	clock   serp.Clock
}

// New constructs a Cache with the given TTL.
func New(ttl time.Duration, clock serp.Clock) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the snapshot for key if one was stored less than TTL ago.
// Expired entries are reported as misses; they may remain physically present.
func (c *Cache) Get(_ context.Context, key string) (serp.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return serp.Snapshot{}, false, nil
	}
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		return serp.Snapshot{}, false, nil
	}
	return e.snapshot.Clone(), true, nil
}

// Set stores a snapshot, overwriting any previous entry for the key.
func (c *Cache) Set(_ context.Context, key string, snapshot serp.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		snapshot: snapshot.Clone(),
		storedAt: c.clock.Now(),
	}
	return nil
}
