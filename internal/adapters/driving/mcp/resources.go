package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// uriScheme is the custom URI scheme for Recall resources.
const uriScheme = "recall://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource listing all indexed notes.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "notes",
		Name:        "notes",
		Description: "List of all indexed notes",
		MIMEType:    "application/json",
	}, s.handleNotesResource)

	// Template for note content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "notes/{noteId}",
		Name:        "note-content",
		Description: "Content of a specific note",
		MIMEType:    "text/plain",
	}, s.handleNoteContentResource)
}

// handleNotesResource returns a list of all indexed notes.
func (s *Server) handleNotesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Metadata == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	records, err := s.ports.Metadata.Scan(ctx, driven.MetadataFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	// Build simplified note list.
	type noteInfo struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Path     string   `json:"path"`
		Tags     []string `json:"tags,omitempty"`
		Modified string   `json:"modified"`
	}

	infos := make([]noteInfo, len(records))
	for i := range records {
		infos[i] = noteInfo{
			ID:       records[i].ID,
			Title:    records[i].Title,
			Path:     records[i].Path,
			Tags:     records[i].Tags,
			Modified: records[i].ModifiedAt.Format("2006-01-02"),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling notes: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleNoteContentResource returns the content of a specific note.
func (s *Server) handleNoteContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Metadata == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract noteId from URI: recall://notes/{noteId}
	noteID := extractNoteID(req.Params.URI)
	if noteID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Metadata.Get(ctx, noteID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     record.Content,
		}},
	}, nil
}

// extractNoteID extracts the note ID from a URI like recall://notes/{noteId}.
func extractNoteID(uri string) string {
	const prefix = uriScheme + "notes/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
