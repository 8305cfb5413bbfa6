package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"strings"
	"time"
)

// DocumentRecord is the canonical representation of a note in the corpus.
// Identity is derived from the note's location, not its content, so edits
// preserve the record's ID.
type DocumentRecord struct {
	// ID uniquely identifies the record. Derived from Path via DocumentID.
	ID string

	// Path is the note's location relative to the corpus root.
	Path string

	// Title is the human-readable title. Defaults to the filename stem
	// when the note carries no explicit title.
	Title string

	// Tags is the note's tag set. Stored sorted and deduplicated;
	// insertion order is irrelevant.
	Tags []string

	// Content is the note body after frontmatter removal.
	Content string

	// ModifiedAt is the note's last modification time.
	ModifiedAt time.Time

	// Fingerprint is a hash of normalised content, used for change
	// detection. It changes if and only if the content changes.
	Fingerprint string
}

// HasTag reports whether the record carries the given tag.
// Comparison is case-insensitive.
func (d *DocumentRecord) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range d.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

// IndexEntry pairs a document's ID with its embedding and the fingerprint
// that produced that embedding. The index is consistent when every entry's
// fingerprint equals its record's fingerprint; a mismatch marks the entry
// stale and eligible for re-embedding.
type IndexEntry struct {
	// DocumentID links to the DocumentRecord.
	DocumentID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Fingerprint is the content fingerprint the embedding was computed from.
	Fingerprint string
}

// DocumentID derives a stable identifier from a corpus-relative path.
// The same path always yields the same ID across re-reads.
func DocumentID(relPath string) string {
	clean := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:16])
}

// Fingerprint hashes normalised content for change detection.
// Normalisation strips carriage returns and surrounding whitespace so
// that line-ending or trailing-blank churn does not count as a change.
func Fingerprint(content string) string {
	normalised := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}

// NormaliseTags lowercases, trims, deduplicates and sorts a tag list.
func NormaliseTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
