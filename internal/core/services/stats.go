package services

import (
	"context"
	"fmt"

	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// StatsService reports on index and cache state. Read-only.
type StatsService struct {
	metadata driven.MetadataStore
	vectors  driven.VectorStore
	cache    driven.ResponseCache
}

// NewStatsService creates a stats service over the stores.
func NewStatsService(
	metadata driven.MetadataStore,
	vectors driven.VectorStore,
	cache driven.ResponseCache,
) *StatsService {
	return &StatsService{
		metadata: metadata,
		vectors:  vectors,
		cache:    cache,
	}
}

// Stats gathers corpus, index and cache statistics, including a
// consistency check between the metadata and vector stores.
func (s *StatsService) Stats(ctx context.Context) (*driving.Stats, error) {
	documents, err := s.metadata.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	vectorCount, err := s.vectors.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index entries: %w", err)
	}

	dimensions, err := s.vectors.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}

	stale, err := s.staleEntries(ctx)
	if err != nil {
		return nil, err
	}

	stats := &driving.Stats{
		Documents:    documents,
		Vectors:      vectorCount,
		Dimensions:   dimensions,
		Consistent:   stale == 0 && documents == vectorCount,
		StaleEntries: stale,
	}

	if s.cache != nil {
		cacheStats, err := s.cache.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("cache stats: %w", err)
		}
		stats.Cache = *cacheStats
	}

	return stats, nil
}

// staleEntries counts mismatches between the two stores: entries without a
// record, records without an entry, and fingerprint divergence.
func (s *StatsService) staleEntries(ctx context.Context) (int, error) {
	snapshot, err := s.metadata.Fingerprints(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot metadata: %w", err)
	}

	ids, err := s.vectors.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list index entries: %w", err)
	}

	stale := 0
	indexed := make(map[string]bool, len(ids))
	for _, id := range ids {
		indexed[id] = true

		fingerprint, ok := snapshot[id]
		if !ok {
			stale++ // entry without record
			continue
		}

		entry, err := s.vectors.Get(ctx, id)
		if err != nil || entry.Fingerprint != fingerprint {
			stale++
		}
	}

	for id := range snapshot {
		if !indexed[id] {
			stale++ // record without entry
		}
	}

	return stale, nil
}
