package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
	"github.com/kestrel-labs/recall-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// Default hybrid scoring weights.
const (
	DefaultVectorWeight  = 0.7
	DefaultLexicalWeight = 0.3
)

// RetrieverConfig configures hybrid scoring.
type RetrieverConfig struct {
	// VectorWeight and LexicalWeight combine the two scoring signals.
	// They are normalised to sum to 1 at query time.
	VectorWeight  float64
	LexicalWeight float64

	// EmbedTimeout bounds the query embedding request (default: 10s).
	EmbedTimeout time.Duration
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.VectorWeight == 0 && c.LexicalWeight == 0 {
		c.VectorWeight = DefaultVectorWeight
		c.LexicalWeight = DefaultLexicalWeight
	}
	if c.EmbedTimeout == 0 {
		c.EmbedTimeout = 10 * time.Second
	}
	return c
}

// Retriever executes queries against the metadata and vector store pair.
// It is a read-only consumer of both stores.
//
// Scoring combines cosine similarity (normalised to [0,1]) with lexical
// term overlap against title and content, weighted 0.7/0.3 by default.
// Tag and time filters are applied against the metadata store first; only
// the restricted candidate set is scored.
type Retriever struct {
	metadata driven.MetadataStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	cfg      RetrieverConfig
}

// NewRetriever creates a retriever over the store pair.
// The embedder is optional; when nil every query runs lexical-only and is
// flagged degraded.
func NewRetriever(
	metadata driven.MetadataStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	cfg RetrieverConfig,
) *Retriever {
	return &Retriever{
		metadata: metadata,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
	}
}

// Search executes the query and returns at most spec.K results, ordered by
// descending score, ties broken by most-recent modification time, then ID.
// If the embedding service is unreachable the query falls back to
// lexical-only scoring and the result is flagged degraded.
func (r *Retriever) Search(ctx context.Context, spec domain.QuerySpec) (*domain.RankedResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q, k=%d, tags=%v", spec.Query, spec.Limit(), spec.Tags)

	query := strings.TrimSpace(spec.Query)
	if query == "" {
		return &domain.RankedResult{}, nil
	}

	// Hard filters first: a non-matching document is excluded regardless
	// of score.
	candidates, err := r.metadata.Scan(ctx, driven.MetadataFilter{
		Tags:   spec.Tags,
		After:  spec.After,
		Before: spec.Before,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan metadata: %w", domain.ErrIndexUnavailable, err)
	}
	logger.Debug("Candidates after filtering: %d", len(candidates))

	if len(candidates) == 0 {
		return &domain.RankedResult{}, nil
	}

	queryTerms := tokenize(query)

	similarities, degraded := r.vectorSimilarities(ctx, query, candidates)
	vectorWeight, lexicalWeight := r.weights(degraded)

	results := make([]domain.ScoredResult, 0, len(candidates))
	for idx := range candidates {
		doc := &candidates[idx]
		lexical := lexicalOverlap(queryTerms, doc)
		score := vectorWeight*similarities[doc.ID] + lexicalWeight*lexical

		if spec.MinScore > 0 && score < spec.MinScore {
			continue
		}

		results = append(results, domain.ScoredResult{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Score:      score,
			Snippet:    extractSnippet(doc.Content, queryTerms),
			ModifiedAt: doc.ModifiedAt,
		})
	}

	sortRanked(results)

	if limit := spec.Limit(); len(results) > limit {
		results = results[:limit]
	}

	logger.Info("Search returned %d results (degraded=%t)", len(results), degraded)
	return &domain.RankedResult{Results: results, Degraded: degraded}, nil
}

// vectorSimilarities returns the candidate id -> similarity map, or an
// all-zero map with degraded=true when embeddings are unavailable.
func (r *Retriever) vectorSimilarities(
	ctx context.Context, query string, candidates []domain.DocumentRecord,
) (map[string]float64, bool) {
	similarities := make(map[string]float64, len(candidates))

	if r.embedder == nil {
		logger.Debug("No embedding service, lexical-only scoring")
		return similarities, true
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.cfg.EmbedTimeout)
	defer cancel()

	queryVector, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to lexical: %v", err)
		return similarities, true
	}

	ids := make([]string, len(candidates))
	for idx := range candidates {
		ids[idx] = candidates[idx].ID
	}

	hits, err := r.vectors.Nearest(ctx, queryVector, ids, len(ids))
	if err != nil {
		logger.Warn("Vector search failed, falling back to lexical: %v", err)
		return similarities, true
	}

	for _, hit := range hits {
		similarities[hit.DocumentID] = hit.Similarity
	}
	return similarities, false
}

// weights returns the normalised scoring weights. In degraded mode the
// lexical signal carries the full weight so scores stay in [0,1].
func (r *Retriever) weights(degraded bool) (vector, lexical float64) {
	if degraded {
		return 0, 1
	}
	total := r.cfg.VectorWeight + r.cfg.LexicalWeight
	if total <= 0 {
		return DefaultVectorWeight, DefaultLexicalWeight
	}
	return r.cfg.VectorWeight / total, r.cfg.LexicalWeight / total
}

// sortRanked orders results by descending score, then most-recent
// modification time, then ID, for deterministic output.
func sortRanked(results []domain.ScoredResult) {
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		if !results[a].ModifiedAt.Equal(results[b].ModifiedAt) {
			return results[a].ModifiedAt.After(results[b].ModifiedAt)
		}
		return results[a].DocumentID < results[b].DocumentID
	})
}

// lexicalOverlap scores the fraction of query terms present in the
// document's title or content, in [0,1]. A score of exactly 0 is a valid
// result, not an error.
func lexicalOverlap(queryTerms []string, doc *domain.DocumentRecord) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	docTerms := make(map[string]struct{})
	for _, t := range tokenize(doc.Title) {
		docTerms[t] = struct{}{}
	}
	for _, t := range tokenize(doc.Content) {
		docTerms[t] = struct{}{}
	}

	matched := 0
	for _, t := range queryTerms {
		if _, ok := docTerms[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// tokenize lowercases and splits text on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// extractSnippet returns the first sentence containing a query term,
// truncated to a readable length. Falls back to the document's opening.
func extractSnippet(content string, queryTerms []string) string {
	const maxSnippet = 200

	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(lower, term) {
				return truncate(sentence, maxSnippet)
			}
		}
	}

	return truncate(strings.TrimSpace(content), maxSnippet)
}

// splitSentences splits content into sentences by common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
