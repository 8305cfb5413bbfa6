// Package mcp provides an MCP (Model Context Protocol) server adapter for Recall.
// It enables AI assistants to search and question a local note corpus.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
