package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
	"github.com/kestrel-labs/recall-cli/internal/logger"
)

// Ensure Synthesizer implements the interface.
var _ driving.AnswerService = (*Synthesizer)(nil)

// NoResultsAnswer is the structured response for an empty retrieval.
// Returned as a normal answer, not an error.
const NoResultsAnswer = "No relevant notes found for this question."

// answerPrompt frames retrieved context for the generation service.
const answerPrompt = `You are answering a question using only the notes below.
Cite note titles when you use them. If the notes do not answer the
question, say so.

Notes:
%s

Question: %s

Answer:`

// summaryPrompt frames retrieved context for topic summarisation.
const summaryPrompt = `Summarise what the notes below say about "%s".
Group related points and mention which notes they come from.

Notes:
%s

Summary:`

// SynthesizerConfig configures answer synthesis and caching.
type SynthesizerConfig struct {
	// CacheTTL is the response cache time-to-live (default: 24h).
	CacheTTL time.Duration

	// ContextBudget truncates each document's content before it enters
	// the generation prompt, bounding the external call's input size
	// (default: 1500 bytes per document).
	ContextBudget int

	// MaxContextDocs bounds how many retrieved documents feed the prompt
	// (default: 3).
	MaxContextDocs int

	// GenerateTimeout bounds each generation request (default: 60s).
	GenerateTimeout time.Duration
}

func (c SynthesizerConfig) withDefaults() SynthesizerConfig {
	if c.CacheTTL == 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.ContextBudget == 0 {
		c.ContextBudget = 1500
	}
	if c.MaxContextDocs == 0 {
		c.MaxContextDocs = 3
	}
	if c.GenerateTimeout == 0 {
		c.GenerateTimeout = 60 * time.Second
	}
	return c
}

// Synthesizer turns ranked retrieval results into answers. It consults the
// response cache before retrieving, composes extractive answers locally,
// and optionally augments them through the generation service.
//
// A cache hit bypasses retrieval entirely. This bounds cost: a stale entry
// can surface an answer that ignores documents indexed after the entry was
// created, which is a documented trade-off, not a bug.
type Synthesizer struct {
	retriever driving.SearchService
	metadata  driven.MetadataStore
	cache     driven.ResponseCache
	generator driven.GenerationService
	cfg       SynthesizerConfig
}

// NewSynthesizer creates a synthesizer. The generator is optional; when
// nil, augmented requests are served by local composition and flagged
// degraded. The metadata store is read-only here, used to hydrate content
// for generation context.
func NewSynthesizer(
	retriever driving.SearchService,
	metadata driven.MetadataStore,
	cache driven.ResponseCache,
	generator driven.GenerationService,
	cfg SynthesizerConfig,
) *Synthesizer {
	return &Synthesizer{
		retriever: retriever,
		metadata:  metadata,
		cache:     cache,
		generator: generator,
		cfg:       cfg.withDefaults(),
	}
}

// Answer responds to a question over the corpus.
func (s *Synthesizer) Answer(
	ctx context.Context, query string, spec domain.QuerySpec, mode domain.AnswerMode,
) (*domain.Answer, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown answer mode %q", domain.ErrInvalidInput, mode)
	}

	spec.Query = query
	key := domain.CacheKey(query, spec, mode)

	if cached := s.lookup(ctx, key, mode); cached != nil {
		return cached, nil
	}

	ranked, err := s.retriever.Search(ctx, spec)
	if err != nil {
		return nil, err
	}
	if ranked.Empty() {
		return &domain.Answer{
			ID:        uuid.NewString(),
			Text:      NoResultsAnswer,
			Mode:      mode,
			Degraded:  ranked.Degraded,
			CreatedAt: time.Now(),
		}, nil
	}

	text, degraded := s.compose(ctx, query, ranked, mode, answerPrompt)

	answer := &domain.Answer{
		ID:        uuid.NewString(),
		Text:      text,
		SourceIDs: sourceIDs(ranked),
		Mode:      mode,
		Degraded:  degraded || ranked.Degraded,
		CreatedAt: time.Now(),
	}

	s.store(ctx, key, answer)
	return answer, nil
}

// Summarize produces a topic summary over the most relevant notes.
func (s *Synthesizer) Summarize(
	ctx context.Context, topic string, spec domain.QuerySpec, mode domain.AnswerMode,
) (*domain.Answer, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown answer mode %q", domain.ErrInvalidInput, mode)
	}

	spec.Query = topic
	key := domain.CacheKey("summarize\x00"+topic, spec, mode)

	if cached := s.lookup(ctx, key, mode); cached != nil {
		return cached, nil
	}

	ranked, err := s.retriever.Search(ctx, spec)
	if err != nil {
		return nil, err
	}
	if ranked.Empty() {
		return &domain.Answer{
			ID:        uuid.NewString(),
			Text:      fmt.Sprintf("No notes found about %q.", topic),
			Mode:      mode,
			Degraded:  ranked.Degraded,
			CreatedAt: time.Now(),
		}, nil
	}

	var text string
	degraded := false
	if mode == domain.AnswerModeAugmented {
		text, degraded = s.generate(ctx, fmt.Sprintf(summaryPrompt, topic, s.buildContext(ctx, ranked)))
	}
	if mode == domain.AnswerModeLocal || degraded {
		text = s.composeSummary(ctx, topic, ranked)
	}

	answer := &domain.Answer{
		ID:        uuid.NewString(),
		Text:      text,
		SourceIDs: sourceIDs(ranked),
		Mode:      mode,
		Degraded:  degraded || ranked.Degraded,
		CreatedAt: time.Now(),
	}

	s.store(ctx, key, answer)
	return answer, nil
}

// Related finds notes similar to an existing note by using its content as
// the query, excluding the note itself.
func (s *Synthesizer) Related(ctx context.Context, documentID string, k int) (*domain.RankedResult, error) {
	if k < 1 {
		k = domain.DefaultK
	}

	record, err := s.metadata.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load note %s: %w", documentID, err)
	}

	// Ask for one extra result since the note matches itself.
	ranked, err := s.retriever.Search(ctx, domain.QuerySpec{
		Query: record.Content,
		K:     k + 1,
	})
	if err != nil {
		return nil, err
	}

	related := make([]domain.ScoredResult, 0, k)
	for _, result := range ranked.Results {
		if result.DocumentID == documentID {
			continue
		}
		related = append(related, result)
		if len(related) == k {
			break
		}
	}

	return &domain.RankedResult{Results: related, Degraded: ranked.Degraded}, nil
}

// lookup returns a cached answer for the key, or nil on a miss.
// Cache read failures count as misses: the cache is best-effort.
func (s *Synthesizer) lookup(ctx context.Context, key string, mode domain.AnswerMode) *domain.Answer {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	logger.Debug("Cache hit for key %s", key[:12])
	return &domain.Answer{
		ID:        uuid.NewString(),
		Text:      entry.Answer,
		SourceIDs: entry.SourceIDs,
		Mode:      mode,
		FromCache: true,
		CreatedAt: entry.CreatedAt,
	}
}

// store writes an answer to the cache. Best-effort: a write failure never
// affects the returned answer.
func (s *Synthesizer) store(ctx context.Context, key string, answer *domain.Answer) {
	entry := &domain.CacheEntry{
		Key:       key,
		Answer:    answer.Text,
		SourceIDs: answer.SourceIDs,
		CreatedAt: answer.CreatedAt,
		TTL:       s.cfg.CacheTTL,
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		logger.Warn("Cache write failed: %v", err)
	}
}

// compose produces the answer text for the requested mode. Returns the
// text and whether the augmented path degraded to local composition.
func (s *Synthesizer) compose(
	ctx context.Context, query string, ranked *domain.RankedResult, mode domain.AnswerMode, prompt string,
) (string, bool) {
	if mode == domain.AnswerModeAugmented {
		text, degraded := s.generate(ctx, fmt.Sprintf(prompt, s.buildContext(ctx, ranked), query))
		if !degraded {
			return text, false
		}
		return s.composeLocal(ranked), true
	}
	return s.composeLocal(ranked), false
}

// generate calls the generation service with a timeout. Returns degraded
// when the service is missing, failing or timing out.
func (s *Synthesizer) generate(ctx context.Context, prompt string) (string, bool) {
	if s.generator == nil {
		return "", true
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, prompt, driven.GenerateOptions{})
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn("Generation failed, degrading to local synthesis: %v", err)
		return "", true
	}
	return strings.TrimSpace(text), false
}

// composeLocal builds an extractive answer: top snippets with citations.
func (s *Synthesizer) composeLocal(ranked *domain.RankedResult) string {
	var b strings.Builder
	b.WriteString("Based on your notes:\n")

	limit := s.cfg.MaxContextDocs
	for idx, result := range ranked.Results {
		if idx == limit {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s (relevance %.2f)\n", idx+1, result.Title, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", result.Snippet)
		}
	}

	return b.String()
}

// composeSummary groups the top results by tag, mirroring how the notes
// themselves are organised.
func (s *Synthesizer) composeSummary(ctx context.Context, topic string, ranked *domain.RankedResult) string {
	byTag := make(map[string][]domain.ScoredResult)
	for _, result := range ranked.Results {
		tag := "untagged"
		if record, err := s.metadata.Get(ctx, result.DocumentID); err == nil && len(record.Tags) > 0 {
			tag = strings.Join(record.Tags, ", ")
		}
		byTag[tag] = append(byTag[tag], result)
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of notes about %q:\n", topic)
	for _, tag := range tags {
		fmt.Fprintf(&b, "\nTagged: %s\n", tag)
		for _, result := range byTag[tag] {
			fmt.Fprintf(&b, "  - %s (relevance %.2f)\n", result.Title, result.Score)
		}
	}

	return b.String()
}

// buildContext assembles a bounded-size context block from the top
// results, truncating each document to the configured budget.
func (s *Synthesizer) buildContext(ctx context.Context, ranked *domain.RankedResult) string {
	var b strings.Builder

	limit := s.cfg.MaxContextDocs
	for idx, result := range ranked.Results {
		if idx == limit {
			break
		}

		content := result.Snippet
		if record, err := s.metadata.Get(ctx, result.DocumentID); err == nil {
			content = record.Content
		}

		fmt.Fprintf(&b, "--- %s ---\n%s\n", result.Title, truncate(content, s.cfg.ContextBudget))
	}

	return b.String()
}

func sourceIDs(ranked *domain.RankedResult) []string {
	ids := make([]string, len(ranked.Results))
	for idx, result := range ranked.Results {
		ids[idx] = result.DocumentID
	}
	return ids
}
