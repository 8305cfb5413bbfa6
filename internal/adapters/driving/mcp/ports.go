package mcp

import (
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid retrieval over the corpus.
	Search driving.SearchService

	// Answer synthesises answers from retrieved notes.
	Answer driving.AnswerService

	// Metadata exposes indexed note records for resources.
	Metadata driven.MetadataStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Answer and Metadata are optional; their tools and resources
	// degrade to not-found when absent.
	return nil
}
