package domain

import "time"

// DefaultK is the result-count bound used when a QuerySpec does not set one.
const DefaultK = 5

// QuerySpec describes a single retrieval request. It is immutable once
// constructed; filters are hard constraints applied before scoring.
type QuerySpec struct {
	// Query is the free-text query.
	Query string

	// Tags are required tags (AND semantics). A document lacking any of
	// them is excluded regardless of score.
	Tags []string

	// After and Before bound the modification time. Zero values mean
	// unbounded on that side.
	After  time.Time
	Before time.Time

	// K is the maximum number of results (K >= 1).
	K int

	// MinScore drops results scoring below it. Zero means no threshold;
	// a score of exactly 0 is a valid result.
	MinScore float64
}

// Limit returns the effective result bound for the spec.
func (s QuerySpec) Limit() int {
	if s.K < 1 {
		return DefaultK
	}
	return s.K
}

// ScoredResult is a single ranked hit.
type ScoredResult struct {
	// DocumentID identifies the matched record.
	DocumentID string

	// Title is the matched record's title.
	Title string

	// Score is the combined relevance score in [0,1].
	Score float64

	// Snippet is a short passage containing matched terms, when one exists.
	Snippet string

	// ModifiedAt is carried for the ordering tie-break.
	ModifiedAt time.Time
}

// RankedResult is an ordered result set: descending score, ties broken by
// most-recent modification time, then by ID.
type RankedResult struct {
	// Results has length at most the spec's K.
	Results []ScoredResult

	// Degraded is set when the result was produced by fallback behaviour,
	// such as lexical-only scoring while the embedding service is down.
	Degraded bool
}

// Empty reports whether the result set has no hits.
func (r *RankedResult) Empty() bool {
	return r == nil || len(r.Results) == 0
}
