package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

func TestResponseCache_HitBumpsCount(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache()

	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key:       "k1",
		Answer:    "cached answer",
		SourceIDs: []string{"doc-1"},
		CreatedAt: time.Now(),
		TTL:       time.Hour,
	}))

	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "cached answer", got.Answer)
	assert.Equal(t, 1, got.HitCount)

	got, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.HitCount)
}

func TestResponseCache_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache()

	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key:       "old",
		Answer:    "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		TTL:       time.Hour,
	}))

	_, err := cache.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResponseCache_PurgeClearStats(t *testing.T) {
	ctx := context.Background()
	cache := NewResponseCache()

	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key: "live", CreatedAt: time.Now(), TTL: time.Hour,
	}))
	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key: "dead", CreatedAt: time.Now().Add(-2 * time.Hour), TTL: time.Hour,
	}))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Expired)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	cleared, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
}
