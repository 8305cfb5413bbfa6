package services

import (
	"context"
	"errors"
	"sync"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// stubSource is an in-memory driven.DocumentSource for testing.
type stubSource struct {
	docs   []domain.DocumentRecord
	issues []driven.SourceIssue
	err    error
}

func (s *stubSource) List(_ context.Context) ([]domain.DocumentRecord, []driven.SourceIssue, error) {
	return s.docs, s.issues, s.err
}

func (s *stubSource) Read(_ context.Context, relPath string) (*domain.DocumentRecord, error) {
	for idx := range s.docs {
		if s.docs[idx].Path == relPath {
			return &s.docs[idx], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubSource) Root() string {
	return "/notes"
}

// note builds a source document with a stable ID and fingerprint.
func note(path, title, content string, tags ...string) domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:          domain.DocumentID(path),
		Path:        path,
		Title:       title,
		Tags:        domain.NormaliseTags(tags),
		Content:     content,
		Fingerprint: domain.Fingerprint(content),
	}
}

// stubEmbedder is a deterministic driven.EmbeddingService. Vectors come
// from the byKey map (exact text match) or fall back to defaultVec.
type stubEmbedder struct {
	mu         sync.Mutex
	byKey      map[string][]float32
	defaultVec []float32
	dims       int
	failFor    map[string]bool
	failAll    bool
	calls      int
}

func newStubEmbedder(dims int) *stubEmbedder {
	vec := make([]float32, dims)
	vec[0] = 1
	return &stubEmbedder{
		byKey:      make(map[string][]float32),
		defaultVec: vec,
		dims:       dims,
		failFor:    make(map[string]bool),
	}
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++

	if e.failAll || e.failFor[text] {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if vec, ok := e.byKey[text]; ok {
		return vec, nil
	}
	return e.defaultVec, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for idx, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[idx] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dims }

func (e *stubEmbedder) ModelName() string { return "stub-embed" }

func (e *stubEmbedder) Ping(_ context.Context) error { return nil }

func (e *stubEmbedder) Close() error { return nil }

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// stubGenerator is a canned driven.GenerationService.
type stubGenerator struct {
	mu       sync.Mutex
	response string
	fail     bool
	calls    int
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	if g.fail {
		return "", errors.New("model unreachable")
	}
	return g.response, nil
}

func (g *stubGenerator) ModelName() string { return "stub-gen" }

func (g *stubGenerator) Ping(_ context.Context) error { return nil }

func (g *stubGenerator) Close() error { return nil }

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
