package driven

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// VectorStore persists IndexEntry state: document id -> embedding plus the
// fingerprint that produced it. Supports nearest-neighbour queries over a
// restricted candidate set.
//
// All entries share one embedding dimension, fixed when the first entry is
// written. Writing a vector of a different dimension is a contract
// violation surfaced as domain.ErrDimensionMismatch.
type VectorStore interface {
	// Put stores or updates an entry.
	Put(ctx context.Context, entry *domain.IndexEntry) error

	// Get retrieves an entry by document ID. Returns domain.ErrNotFound
	// when absent.
	Get(ctx context.Context, id string) (*domain.IndexEntry, error)

	// Delete removes an entry. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// Nearest returns up to k entries most similar to the query vector,
	// ordered by descending similarity. When candidateIDs is non-nil only
	// those entries are considered. Similarity is cosine similarity
	// normalised to [0,1].
	Nearest(ctx context.Context, query []float32, candidateIDs []string, k int) ([]VectorHit, error)

	// IDs returns all stored document IDs. Used for consistency repair
	// between the metadata and vector stores.
	IDs(ctx context.Context) ([]string, error)

	// Dimensions returns the store's embedding dimension, or 0 when the
	// store is empty.
	Dimensions(ctx context.Context) (int, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	// DocumentID is the matched entry's document.
	DocumentID string

	// Similarity is the cosine similarity normalised to [0,1].
	Similarity float64
}
