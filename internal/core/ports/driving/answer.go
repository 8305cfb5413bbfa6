package driving

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// AnswerService synthesises answers from retrieved passages, consulting
// the response cache before doing any retrieval or generation work.
type AnswerService interface {
	// Answer responds to a question over the corpus. A non-expired cache
	// entry is returned unchanged without retrieval; this bounds cost at
	// the price of possible staleness.
	Answer(ctx context.Context, query string, spec domain.QuerySpec, mode domain.AnswerMode) (*domain.Answer, error)

	// Summarize produces a topic summary over the most relevant notes,
	// grouped by tag.
	Summarize(ctx context.Context, topic string, spec domain.QuerySpec, mode domain.AnswerMode) (*domain.Answer, error)

	// Related finds notes similar to an existing note, excluding the
	// note itself.
	Related(ctx context.Context, documentID string, k int) (*domain.RankedResult, error)
}
