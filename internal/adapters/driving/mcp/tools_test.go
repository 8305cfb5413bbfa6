package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			ranked: &domain.RankedResult{
				Results: []domain.ScoredResult{
					{
						DocumentID: "note-1",
						Title:      "Servo Calibration",
						Score:      0.95,
						Snippet:    "Calibrate the base joint first.",
						ModifiedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
					},
				},
			},
		}

		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "servo", Limit: 5}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "note-1", output.Results[0].NoteID)
		assert.Equal(t, "Servo Calibration", output.Results[0].Title)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "2026-03-10", output.Results[0].Modified)
	})

	t.Run("rejects malformed after date", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "servo", After: "March 10"}
		_, _, err = server.handleSearch(ctx, nil, input)
		assert.Error(t, err)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{
			err: errors.New("search failed"),
		}

		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "servo"}
		_, _, err = server.handleSearch(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with provenance", func(t *testing.T) {
		mockAnswer := &mockAnswerService{
			answer: &domain.Answer{
				Text:      "Based on your notes: calibrate the base joint first.",
				SourceIDs: []string{"note-1"},
				FromCache: true,
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Answer: mockAnswer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Question: "how do I calibrate the arm?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Contains(t, output.Answer, "calibrate")
		assert.Equal(t, []string{"note-1"}, output.SourceIDs)
		assert.True(t, output.FromCache)
	})

	t.Run("missing answer service returns error", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Question: "anything"}
		_, _, err = server.handleAsk(ctx, nil, input)
		assert.Error(t, err)
	})
}
