package driving

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// SearchService provides ranked retrieval over the indexed corpus.
type SearchService interface {
	// Search executes a query and returns a ranked result set of at most
	// spec.K hits. Filters are hard constraints applied before scoring.
	Search(ctx context.Context, spec domain.QuerySpec) (*domain.RankedResult, error)
}
