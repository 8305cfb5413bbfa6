package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a synchronize run is already in flight.
	// Synchronize is single-writer; a second concurrent call is rejected.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrSourceUnreadable indicates a source document could not be read.
	// The document is skipped and reported; the run continues.
	ErrSourceUnreadable = errors.New("source document unreadable")

	// ErrEmbeddingUnavailable indicates the embedding service failed or
	// timed out. Transient: indexing skips the document, search degrades
	// to lexical-only scoring.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service failed or
	// timed out. Transient: synthesis degrades to local composition.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrStoreCorrupted indicates a store contract violation, such as an
	// ID collision between distinct source documents. Fatal: the
	// operation aborts rather than silently overwriting.
	ErrStoreCorrupted = errors.New("store corrupted")

	// ErrDimensionMismatch indicates the embedding service's dimension
	// does not match the vector store's. Fatal at startup.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexUnavailable indicates neither store could serve a query.
	// Distinct from an empty result: this is a hard failure.
	ErrIndexUnavailable = errors.New("index unavailable")
)
