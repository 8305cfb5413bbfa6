// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Reads notes and their attributes from the corpus root
//   - MetadataStore: Durable keyed storage for DocumentRecord attributes
//   - VectorStore: Durable storage for embeddings with nearest-neighbour queries
//   - ResponseCache: Cached synthesised answers with passive TTL expiry
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, retrieval
//     runs lexical-only and results are flagged degraded.
//   - GenerationService: Produces augmented answers. Without it, synthesis
//     runs in local extractive mode.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
