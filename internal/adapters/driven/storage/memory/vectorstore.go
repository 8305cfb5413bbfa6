package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		entries: make(map[string]domain.IndexEntry),
	}
}

// Put stores or updates an index entry. The first entry fixes the store's
// dimension; later writes of a different dimension are rejected.
func (s *VectorStore) Put(_ context.Context, entry *domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dimensionsLocked()
	if dims != 0 && dims != len(entry.Embedding) {
		return fmt.Errorf("%w: store has %d, entry has %d",
			domain.ErrDimensionMismatch, dims, len(entry.Embedding))
	}

	s.entries[entry.DocumentID] = *entry
	return nil
}

// Get retrieves an index entry by document ID.
func (s *VectorStore) Get(_ context.Context, id string) (*domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Delete removes an index entry.
func (s *VectorStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Nearest finds the k entries most similar to the query vector.
func (s *VectorStore) Nearest(
	_ context.Context, query []float32, candidateIDs []string, k int,
) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[string]bool
	if candidateIDs != nil {
		allowed = make(map[string]bool, len(candidateIDs))
		for _, id := range candidateIDs {
			allowed[id] = true
		}
	}

	var hits []driven.VectorHit
	for id := range s.entries {
		if allowed != nil && !allowed[id] {
			continue
		}
		entry := s.entries[id]
		hits = append(hits, driven.VectorHit{
			DocumentID: id,
			Similarity: normalisedCosine(query, entry.Embedding),
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].DocumentID < hits[b].DocumentID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// IDs returns all stored document IDs.
func (s *VectorStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

// Dimensions returns the store's embedding dimension, or 0 when empty.
func (s *VectorStore) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensionsLocked(), nil
}

// Count returns the number of stored entries.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *VectorStore) dimensionsLocked() int {
	for _, entry := range s.entries {
		return len(entry.Embedding)
	}
	return 0
}

// normalisedCosine maps cosine similarity from [-1,1] to [0,1].
func normalisedCosine(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cosine + 1) / 2
}
