// Package ttlcache implements the bounded in-process cache that shields
// the service from repeated calls to external map providers. Entries
// expire after a fixed TTL and, at capacity, the least recently accessed
// entry is evicted. Values are returned as stored: callers must treat
// them as read-only.
package ttlcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value          V
	expiresAt      time.Time
	lastAccessedAt time.Time
}

type Stats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"maxSize"`
	TTL     time.Duration `json:"ttl"`
}

type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]entry[V]
	maxSize int
	ttl     time.Duration
	now     func() time.Time // for tests
}

func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache[V]{
		items:   make(map[string]entry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored value if present and unexpired. An expired entry
// is deleted as a side effect and reported as absent. A hit refreshes the
// entry's last-access time.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	now := c.now()
	if !now.Before(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	e.lastAccessedAt = now
	c.items[key] = e
	return e.value, true
}

// Set inserts or overwrites the value for key. When the cache is at
// capacity the single entry with the oldest last-access time is evicted
// first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.items[key] = entry[V]{
		value:          value,
		expiresAt:      now.Add(c.ttl),
		lastAccessedAt: now,
	}
}

// Invalidate removes every key containing the given substring and returns
// the number of entries removed.
func (c *Cache[V]) Invalidate(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.items {
		if strings.Contains(k, substr) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Cleanup removes all expired entries.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.items), MaxSize: c.maxSize, TTL: c.ttl}
}

// StartSweeper runs Cleanup on a fixed period until ctx is cancelled, so
// memory is reclaimed even when no requests arrive.
func (c *Cache[V]) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.items {
		if first || e.lastAccessedAt.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccessedAt
			first = false
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}
