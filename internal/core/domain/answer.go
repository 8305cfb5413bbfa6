package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AnswerMode selects how an answer is synthesised.
type AnswerMode string

const (
	// AnswerModeLocal composes an extractive answer from retrieved
	// passages without any external call.
	AnswerModeLocal AnswerMode = "local"

	// AnswerModeAugmented sends retrieved context to the generation
	// service. Falls back to local composition when the service fails.
	AnswerModeAugmented AnswerMode = "augmented"
)

// Valid reports whether the mode is a known synthesis mode.
func (m AnswerMode) Valid() bool {
	return m == AnswerModeLocal || m == AnswerModeAugmented
}

// Answer is the result of a synthesis request.
type Answer struct {
	// ID uniquely identifies this answer instance.
	ID string

	// Text is the synthesised answer.
	Text string

	// SourceIDs lists the document IDs the answer was built from.
	SourceIDs []string

	// Mode is the synthesis mode that was requested.
	Mode AnswerMode

	// Degraded is set when the answer was produced via fallback
	// behaviour (augmented request served by local composition, or a
	// degraded retrieval underneath).
	Degraded bool

	// FromCache is set when the answer was served from the response cache.
	FromCache bool

	// CreatedAt is when the answer text was originally synthesised.
	CreatedAt time.Time
}

// CacheEntry is a cached synthesised answer. Entries expire passively:
// expiry is checked at read time, never swept in the background, so an
// expired row may linger until purged but is never served.
type CacheEntry struct {
	// Key is the deterministic cache key, see CacheKey.
	Key string

	// Answer is the cached answer text.
	Answer string

	// SourceIDs lists the document IDs used to build the answer.
	SourceIDs []string

	// CreatedAt is when the entry was written.
	CreatedAt time.Time

	// TTL is the entry's time-to-live from CreatedAt.
	TTL time.Duration

	// HitCount is the number of times the entry has been served.
	HitCount int
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

// CacheKey derives the deterministic response-cache key for a query.
// The key covers the normalised query text, the sorted filter set and the
// synthesis mode, so equivalent requests share one entry regardless of
// tag order or whitespace.
func CacheKey(query string, spec QuerySpec, mode AnswerMode) string {
	var b strings.Builder
	b.WriteString(normaliseQuery(query))
	b.WriteByte(0)
	for _, tag := range NormaliseTags(spec.Tags) {
		b.WriteString(tag)
		b.WriteByte(',')
	}
	b.WriteByte(0)
	fmt.Fprintf(&b, "%d:%d", timeKey(spec.After), timeKey(spec.Before))
	b.WriteByte(0)
	fmt.Fprintf(&b, "k=%d:min=%g", spec.Limit(), spec.MinScore)
	b.WriteByte(0)
	b.WriteString(string(mode))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// normaliseQuery lowercases and collapses whitespace so trivially
// different phrasings of the same query share a cache entry.
func normaliseQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func timeKey(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
