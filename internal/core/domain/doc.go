// Package domain defines the core business entities for Recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: A note's metadata and content
//   - IndexEntry: A note's embedding paired with its content fingerprint
//   - QuerySpec / RankedResult: Retrieval requests and ranked hits
//   - Answer / CacheEntry: Synthesised answers and their cached form
//   - SyncReport: The outcome of one synchronize run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
