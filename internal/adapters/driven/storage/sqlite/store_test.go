package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testRecord(id, path, title string) *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:          id,
		Path:        path,
		Title:       title,
		Tags:        []string{"notes"},
		Content:     "Some note content about " + title + ".",
		ModifiedAt:  time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Fingerprint: domain.Fingerprint("Some note content about " + title + "."),
	}
}

func TestMetadataStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	metadata := newTestStore(t).MetadataStore()

	record := testRecord("doc-1", "notes/robotics.md", "Robotics")
	require.NoError(t, metadata.Put(ctx, record))

	got, err := metadata.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, record.Path, got.Path)
	assert.Equal(t, record.Title, got.Title)
	assert.Equal(t, record.Tags, got.Tags)
	assert.Equal(t, record.Fingerprint, got.Fingerprint)
	assert.True(t, record.ModifiedAt.Equal(got.ModifiedAt))

	require.NoError(t, metadata.Delete(ctx, "doc-1"))

	_, err = metadata.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_PutIsUpsert(t *testing.T) {
	ctx := context.Background()
	metadata := newTestStore(t).MetadataStore()

	record := testRecord("doc-1", "notes/robotics.md", "Robotics")
	require.NoError(t, metadata.Put(ctx, record))

	record.Title = "Robotics Lab"
	record.Content = "Updated content."
	record.Fingerprint = domain.Fingerprint(record.Content)
	require.NoError(t, metadata.Put(ctx, record))

	got, err := metadata.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Robotics Lab", got.Title)
	assert.Equal(t, record.Fingerprint, got.Fingerprint)

	count, err := metadata.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetadataStore_ScanFilters(t *testing.T) {
	ctx := context.Background()
	metadata := newTestStore(t).MetadataStore()

	old := testRecord("doc-1", "notes/a.md", "Alpha")
	old.Tags = []string{"robotics", "lab"}
	old.ModifiedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	recent := testRecord("doc-2", "notes/b.md", "Beta")
	recent.Tags = []string{"cooking"}
	recent.ModifiedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, metadata.Put(ctx, old))
	require.NoError(t, metadata.Put(ctx, recent))

	records, err := metadata.Scan(ctx, driven.MetadataFilter{Tags: []string{"ROBOTICS"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "doc-1", records[0].ID)

	records, err = metadata.Scan(ctx, driven.MetadataFilter{
		After: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "doc-2", records[0].ID)

	records, err = metadata.Scan(ctx, driven.MetadataFilter{Tags: []string{"missing"}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMetadataStore_Fingerprints(t *testing.T) {
	ctx := context.Background()
	metadata := newTestStore(t).MetadataStore()

	require.NoError(t, metadata.Put(ctx, testRecord("doc-1", "notes/a.md", "Alpha")))
	require.NoError(t, metadata.Put(ctx, testRecord("doc-2", "notes/b.md", "Beta")))

	snapshot, err := metadata.Fingerprints(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot, 2)
	assert.NotEmpty(t, snapshot["doc-1"])
	assert.NotEmpty(t, snapshot["doc-2"])
}

func TestVectorStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	vectors := newTestStore(t).VectorStore()

	entry := &domain.IndexEntry{
		DocumentID:  "doc-1",
		Embedding:   []float32{0.1, -0.2, 0.3},
		Fingerprint: "fp-1",
	}
	require.NoError(t, vectors.Put(ctx, entry))

	got, err := vectors.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entry.Embedding, got.Embedding)
	assert.Equal(t, "fp-1", got.Fingerprint)

	dims, err := vectors.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)
}

func TestVectorStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	vectors := newTestStore(t).VectorStore()

	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-1",
		Embedding:  []float32{1, 0, 0},
	}))

	err := vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-2",
		Embedding:  []float32{1, 0},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorStore_EmptyDimensionsIsZero(t *testing.T) {
	ctx := context.Background()
	vectors := newTestStore(t).VectorStore()

	dims, err := vectors.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dims)
}

func TestVectorStore_NearestOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	vectors := newTestStore(t).VectorStore()

	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "aligned", Embedding: []float32{1, 0, 0},
	}))
	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "orthogonal", Embedding: []float32{0, 1, 0},
	}))
	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "opposed", Embedding: []float32{-1, 0, 0},
	}))

	hits, err := vectors.Nearest(ctx, []float32{1, 0, 0}, nil, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "aligned", hits[0].DocumentID)
	assert.Equal(t, "orthogonal", hits[1].DocumentID)
	assert.Equal(t, "opposed", hits[2].DocumentID)

	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.InDelta(t, 0.5, hits[1].Similarity, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-6)
}

func TestVectorStore_NearestRespectsCandidates(t *testing.T) {
	ctx := context.Background()
	vectors := newTestStore(t).VectorStore()

	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-1", Embedding: []float32{1, 0},
	}))
	require.NoError(t, vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-2", Embedding: []float32{1, 0},
	}))

	hits, err := vectors.Nearest(ctx, []float32{1, 0}, []string{"doc-2"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2", hits[0].DocumentID)

	hits, err = vectors.Nearest(ctx, []float32{1, 0}, []string{}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestResponseCache_PutGetBumpsHits(t *testing.T) {
	ctx := context.Background()
	cache := newTestStore(t).ResponseCache()

	entry := &domain.CacheEntry{
		Key:       "key-1",
		Answer:    "Based on your notes: robots are fun.",
		SourceIDs: []string{"doc-1", "doc-2"},
		CreatedAt: time.Now(),
		TTL:       time.Hour,
	}
	require.NoError(t, cache.Put(ctx, entry))

	got, err := cache.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, entry.Answer, got.Answer)
	assert.Equal(t, entry.SourceIDs, got.SourceIDs)
	assert.Equal(t, 1, got.HitCount)

	got, err = cache.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.HitCount)
}

func TestResponseCache_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := newTestStore(t).ResponseCache()

	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key:       "stale",
		Answer:    "old answer",
		SourceIDs: []string{"doc-1"},
		CreatedAt: time.Now().Add(-2 * time.Hour),
		TTL:       time.Hour,
	}))

	_, err := cache.Get(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResponseCache_PurgeAndStats(t *testing.T) {
	ctx := context.Background()
	cache := newTestStore(t).ResponseCache()

	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key: "live", Answer: "a", SourceIDs: []string{},
		CreatedAt: time.Now(), TTL: time.Hour,
	}))
	require.NoError(t, cache.Put(ctx, &domain.CacheEntry{
		Key: "dead", Answer: "b", SourceIDs: []string{},
		CreatedAt: time.Now().Add(-2 * time.Hour), TTL: time.Hour,
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

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	original := []float32{0.0, 1.5, -2.25, 3.14159}

	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
