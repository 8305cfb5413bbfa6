package driving

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// StatsService reports on index and cache state.
type StatsService interface {
	// Stats gathers corpus, index and cache statistics.
	Stats(ctx context.Context) (*Stats, error)
}

// Stats summarises the state of the knowledge base.
type Stats struct {
	// Documents is the number of records in the metadata store.
	Documents int

	// Vectors is the number of entries in the vector store.
	Vectors int

	// Dimensions is the vector store's embedding dimension (0 when empty).
	Dimensions int

	// Consistent is true when every vector entry has a matching record
	// with equal fingerprint, and vice versa.
	Consistent bool

	// StaleEntries counts id or fingerprint mismatches between the two
	// stores. Repaired by the next synchronize run.
	StaleEntries int

	// Cache reports response-cache occupancy and usage.
	Cache driven.CacheStats
}
