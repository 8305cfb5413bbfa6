package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

func TestVectorStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	entry := &domain.IndexEntry{
		DocumentID:  "doc-1",
		Embedding:   []float32{0.5, 0.5},
		Fingerprint: "fp-1",
	}
	require.NoError(t, store.Put(ctx, entry))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entry.Embedding, got.Embedding)

	require.NoError(t, store.Delete(ctx, "doc-1"))
	_, err = store.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_RejectsMismatchedDimensions(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-1", Embedding: []float32{1, 0, 0},
	}))

	err := store.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-2", Embedding: []float32{1, 0, 0, 0},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	dims, err := store.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dims)
}

func TestVectorStore_NearestRanksAndLimits(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Put(ctx, &domain.IndexEntry{
		DocumentID: "close", Embedding: []float32{1, 0},
	}))
	require.NoError(t, store.Put(ctx, &domain.IndexEntry{
		DocumentID: "far", Embedding: []float32{-1, 0},
	}))
	require.NoError(t, store.Put(ctx, &domain.IndexEntry{
		DocumentID: "middle", Embedding: []float32{0, 1},
	}))

	hits, err := store.Nearest(ctx, []float32{1, 0}, nil, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "close", hits[0].DocumentID)
	assert.Equal(t, "middle", hits[1].DocumentID)
}

func TestVectorStore_NearestWithEmptyCandidates(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Put(ctx, &domain.IndexEntry{
		DocumentID: "doc-1", Embedding: []float32{1, 0},
	}))

	hits, err := store.Nearest(ctx, []float32{1, 0}, []string{}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
