package domain

import "time"

// SyncFailure records a document that could not be indexed during a
// synchronize run. Failures are isolated: the rest of the run proceeds.
type SyncFailure struct {
	// DocumentID identifies the failed document.
	DocumentID string

	// Path is the document's corpus-relative path, when known.
	Path string

	// Reason describes why the document failed.
	Reason string
}

// SyncReport summarises one synchronize run.
type SyncReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// Added is the count of newly indexed documents.
	Added int

	// Updated is the count of re-indexed documents.
	Updated int

	// Removed is the count of documents deleted from both stores.
	Removed int

	// Unchanged is the count of documents left untouched.
	Unchanged int

	// Failures lists per-document failures. Non-empty failures do not
	// make the run itself fail.
	Failures []SyncFailure

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// Changed reports whether the run modified either store.
func (r *SyncReport) Changed() bool {
	return r.Added > 0 || r.Updated > 0 || r.Removed > 0
}
