package driving

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// Indexer reconciles source documents against the metadata and vector
// store pair. It is the only component permitted to write to either store.
type Indexer interface {
	// Synchronize runs one reconciliation pass. When forceFull is set,
	// every document is treated as modified regardless of fingerprint
	// (used for model-version migrations). A second call while one is in
	// flight is rejected with domain.ErrSyncInProgress.
	Synchronize(ctx context.Context, forceFull bool) (*domain.SyncReport, error)

	// Status reports whether a synchronize run is currently in flight.
	Status(ctx context.Context) (*SyncStatus, error)
}

// SyncStatus represents the current state of synchronisation.
type SyncStatus struct {
	// Running indicates if a synchronize run is in progress.
	Running bool

	// DocumentsProcessed is the count of documents handled so far.
	DocumentsProcessed int

	// FailureCount is the number of per-document failures so far.
	FailureCount int
}
