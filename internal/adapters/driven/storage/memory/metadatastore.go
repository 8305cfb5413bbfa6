package memory

import (
	"context"
	"sync"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		records: make(map[string]domain.DocumentRecord),
	}
}

// Get retrieves a record by ID.
func (s *MetadataStore) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Put stores or updates a record.
func (s *MetadataStore) Put(_ context.Context, record *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

// Delete removes a record.
func (s *MetadataStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Scan returns all records matching the filter.
func (s *MetadataStore) Scan(_ context.Context, filter driven.MetadataFilter) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	required := domain.NormaliseTags(filter.Tags)

	var result []domain.DocumentRecord
	for id := range s.records {
		record := s.records[id]
		if !filter.After.IsZero() && record.ModifiedAt.Before(filter.After) {
			continue
		}
		if !filter.Before.IsZero() && record.ModifiedAt.After(filter.Before) {
			continue
		}
		if !hasAllTags(&record, required) {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

// Fingerprints returns the current id to fingerprint snapshot.
func (s *MetadataStore) Fingerprints(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, len(s.records))
	for id, record := range s.records {
		snapshot[id] = record.Fingerprint
	}
	return snapshot, nil
}

// Count returns the number of stored records.
func (s *MetadataStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func hasAllTags(record *domain.DocumentRecord, required []string) bool {
	for _, tag := range required {
		if !record.HasTag(tag) {
			return false
		}
	}
	return true
}
