package driven

import (
	"context"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
)

// DocumentSource reads notes from a content root and produces complete
// DocumentRecord values (id, title, tags, content, modified time,
// fingerprint). IDs are stable across re-reads of unmodified documents.
type DocumentSource interface {
	// List enumerates the current set of source documents. Unreadable
	// documents are skipped and reported as issues; only a failure to
	// enumerate the corpus itself returns an error.
	List(ctx context.Context) ([]domain.DocumentRecord, []SourceIssue, error)

	// Read returns the record for a single corpus-relative path.
	Read(ctx context.Context, relPath string) (*domain.DocumentRecord, error)

	// Root returns the corpus root location.
	Root() string
}

// SourceIssue reports a document that could not be read.
type SourceIssue struct {
	// Path is the corpus-relative path of the unreadable document.
	Path string

	// Err is the underlying read error.
	Err error
}
