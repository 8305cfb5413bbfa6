package mcp

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	ranked *domain.RankedResult
	err    error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ domain.QuerySpec,
) (*domain.RankedResult, error) {
	if m.ranked == nil && m.err == nil {
		return &domain.RankedResult{}, nil
	}
	return m.ranked, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	ranked *domain.RankedResult
	err    error
}

func (m *mockAnswerService) Answer(
	_ context.Context, _ string, _ domain.QuerySpec, _ domain.AnswerMode,
) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAnswerService) Summarize(
	_ context.Context, _ string, _ domain.QuerySpec, _ domain.AnswerMode,
) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockAnswerService) Related(
	_ context.Context, _ string, _ int,
) (*domain.RankedResult, error) {
	return m.ranked, m.err
}

// mockMetadataStore is a mock implementation of driven.MetadataStore.
type mockMetadataStore struct {
	records []domain.DocumentRecord
	record  *domain.DocumentRecord
	err     error
}

func (m *mockMetadataStore) Get(_ context.Context, _ string) (*domain.DocumentRecord, error) {
	if m.record == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.record, m.err
}

func (m *mockMetadataStore) Put(_ context.Context, _ *domain.DocumentRecord) error {
	return m.err
}

func (m *mockMetadataStore) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockMetadataStore) Scan(_ context.Context, _ driven.MetadataFilter) ([]domain.DocumentRecord, error) {
	return m.records, m.err
}

func (m *mockMetadataStore) Fingerprints(_ context.Context) (map[string]string, error) {
	return nil, m.err
}

func (m *mockMetadataStore) Count(_ context.Context) (int, error) {
	return len(m.records), m.err
}
