package driven

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// ResponseCache stores synthesised answers keyed by deterministic query
// hashes. Expiry is passive: Get never returns an expired entry, but
// expired rows are only reclaimed by an explicit PurgeExpired.
//
// The cache is shared and read-mostly. A write race between two misses
// computing the same key resolves as last-write-wins.
type ResponseCache interface {
	// Get returns the entry for the key, bumping its hit count.
	// Returns domain.ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// Put stores or replaces the entry for its key.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// PurgeExpired deletes expired rows and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)

	// Clear deletes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	// Stats reports cache occupancy and usage.
	Stats(ctx context.Context) (*CacheStats, error)
}

// CacheStats summarises response-cache state.
type CacheStats struct {
	// Total is the number of stored entries, expired or not.
	Total int

	// Valid is the number of entries still within their TTL.
	Valid int

	// Expired is the number of entries past their TTL but not yet purged.
	Expired int

	// Hits is the sum of hit counts across all entries.
	Hits int
}
