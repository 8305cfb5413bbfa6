package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// Ensure ResponseCache implements the interface.
var _ driven.ResponseCache = (*ResponseCache)(nil)

// ResponseCache is an in-memory implementation of driven.ResponseCache.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

// NewResponseCache creates a new in-memory response cache.
func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]domain.CacheEntry),
	}
}

// Get returns a non-expired entry and bumps its hit count.
func (c *ResponseCache) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}

	entry.HitCount++
	c.entries[key] = entry
	return &entry, nil
}

// Put stores or replaces the entry for its key.
func (c *ResponseCache) Put(_ context.Context, entry *domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	c.entries[stored.Key] = stored
	return nil
}

// PurgeExpired deletes expired entries.
func (c *ResponseCache) PurgeExpired(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	purged := 0
	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
			purged++
		}
	}
	return purged, nil
}

// Clear deletes all entries.
func (c *ResponseCache) Clear(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := len(c.entries)
	c.entries = make(map[string]domain.CacheEntry)
	return cleared, nil
}

// Stats reports cache occupancy and usage.
func (c *ResponseCache) Stats(_ context.Context) (*driven.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stats := driven.CacheStats{Total: len(c.entries)}
	for _, entry := range c.entries {
		stats.Hits += entry.HitCount
		if !entry.Expired(now) {
			stats.Valid++
		}
	}
	stats.Expired = stats.Total - stats.Valid
	return &stats, nil
}
