package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/recruitly/screener/internal/model"
)

// cacheTTL is how long a computed response stays valid.
const cacheTTL = 60 * time.Minute

type cacheEntry struct {
	value    string
	expiryAt time.Time
}

// Cache stores provider responses keyed by canonical task key. Concurrent
// requests for the same key share a single in-flight computation; errors are
// never cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	flight  singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates an empty response cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     cacheTTL,
		now:     time.Now,
	}
}

// GetOrCompute returns the cached response for the task, or runs compute and
// caches its result. An expired entry is treated as absent.
func (c *Cache) GetOrCompute(ctx context.Context, task model.GenerationTask, compute func(ctx context.Context) (string, error)) (string, error) {
	key := task.Key()

	if v, ok := c.lookup(key); ok {
		slog.Debug("cache hit", "kind", task.Kind, "key", key[:12])
		return v, nil
	}

	v, err, shared := c.flight.Do(key, func() (interface{}, error) {
		// Re-check: a concurrent caller may have filled the entry between
		// our lookup and joining the flight.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return "", err
		}
		c.store(key, value)
		return value, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		slog.Debug("cache flight shared", "kind", task.Kind, "key", key[:12])
	}
	return v.(string), nil
}

// Invalidate drops the entry for a task, if present.
func (c *Cache) Invalidate(task model.GenerationTask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, task.Key())
}

// Len reports the number of live (unexpired) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if c.now().Before(e.expiryAt) {
			n++
		}
	}
	return n
}

func (c *Cache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiryAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

func (c *Cache) store(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiryAt: c.now().Add(c.ttl)}
}
