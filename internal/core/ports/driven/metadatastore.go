package driven

import (
	"context"
	"time"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// MetadataStore persists DocumentRecord attributes.
// Backed by SQLite for durable storage.
//
// Only the Indexer writes to this store; Retriever and Synthesizer are
// read-only consumers.
type MetadataStore interface {
	// Get retrieves a record by ID. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.DocumentRecord, error)

	// Put stores or updates a record.
	Put(ctx context.Context, record *domain.DocumentRecord) error

	// Delete removes a record. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// Scan returns all records matching the filter.
	Scan(ctx context.Context, filter MetadataFilter) ([]domain.DocumentRecord, error)

	// Fingerprints returns the current id -> fingerprint snapshot.
	// The Indexer diffs this against the source to classify changes.
	Fingerprints(ctx context.Context) (map[string]string, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// MetadataFilter restricts a Scan. Zero values leave a dimension
// unconstrained. Filters are hard constraints: a non-matching record is
// excluded regardless of any later scoring.
type MetadataFilter struct {
	// Tags are required tags (AND semantics).
	Tags []string

	// After and Before bound the modification time.
	After  time.Time
	Before time.Time
}
