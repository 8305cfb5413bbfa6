package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string   `json:"query" jsonschema:"the search query to find notes"`
	Tags  []string `json:"tags,omitempty" jsonschema:"require notes to carry all of these tags"`
	After string   `json:"after,omitempty" jsonschema:"only notes modified on or after this date (YYYY-MM-DD)"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Degraded bool                 `json:"degraded,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	NoteID   string  `json:"note_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet,omitempty"`
	Modified string  `json:"modified"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the notes"`
	Augmented bool   `json:"augmented,omitempty" jsonschema:"generate the answer with the configured model instead of composing locally"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string   `json:"answer"`
	SourceIDs []string `json:"source_ids,omitempty"`
	FromCache bool     `json:"from_cache,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed notes",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed notes",
	}, s.handleAsk)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	spec := domain.QuerySpec{
		Query: input.Query,
		Tags:  input.Tags,
		K:     input.Limit,
	}

	if input.After != "" {
		after, err := time.Parse("2006-01-02", input.After)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		spec.After = after
	}

	ranked, err := s.ports.Search.Search(ctx, spec)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:  make([]SearchResultOutput, len(ranked.Results)),
		Count:    len(ranked.Results),
		Degraded: ranked.Degraded,
	}

	for i := range ranked.Results {
		output.Results[i] = SearchResultOutput{
			NoteID:   ranked.Results[i].DocumentID,
			Title:    ranked.Results[i].Title,
			Score:    ranked.Results[i].Score,
			Snippet:  ranked.Results[i].Snippet,
			Modified: ranked.Results[i].ModifiedAt.Format("2006-01-02"),
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, errors.New("mcp: answer service not configured")
	}

	mode := domain.AnswerModeLocal
	if input.Augmented {
		mode = domain.AnswerModeAugmented
	}

	spec := domain.QuerySpec{Query: input.Question}
	answer, err := s.ports.Answer.Answer(ctx, input.Question, spec, mode)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:    answer.Text,
		SourceIDs: answer.SourceIDs,
		FromCache: answer.FromCache,
		Degraded:  answer.Degraded,
	}, nil
}
