// Package filesystem reads markdown notes from a local directory tree.
package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// DefaultInclude matches every markdown file below the root.
const DefaultInclude = "**/*.md"

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source lists and reads markdown notes from a root directory. Paths are
// reported relative to the root with forward slashes, so note identity
// survives moving the whole tree to another machine.
type Source struct {
	root    string
	include []string
	exclude []string
}

// Option configures a Source.
type Option func(*Source)

// WithInclude overrides the include glob patterns.
func WithInclude(patterns ...string) Option {
	return func(s *Source) {
		if len(patterns) > 0 {
			s.include = patterns
		}
	}
}

// WithExclude sets glob patterns for paths to skip.
func WithExclude(patterns ...string) Option {
	return func(s *Source) {
		s.exclude = patterns
	}
}

// New creates a filesystem source rooted at the given directory.
func New(root string, opts ...Option) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnreadable, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrSourceUnreadable, abs)
	}

	s := &Source{
		root:    abs,
		include: []string{DefaultInclude},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute root directory.
func (s *Source) Root() string {
	return s.root
}

// List walks the root and returns a record for every matching note.
// Unreadable or unparseable files are reported as issues, not errors; one
// bad note never hides the rest of the corpus.
func (s *Source) List(ctx context.Context) ([]domain.DocumentRecord, []driven.SourceIssue, error) {
	var records []domain.DocumentRecord
	var issues []driven.SourceIssue

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			issues = append(issues, driven.SourceIssue{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			issues = append(issues, driven.SourceIssue{Path: path, Err: err})
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !s.matches(rel) {
			return nil
		}

		record, err := s.read(rel)
		if err != nil {
			issues = append(issues, driven.SourceIssue{Path: rel, Err: err})
			return nil
		}
		records = append(records, *record)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", s.root, err)
	}

	return records, issues, nil
}

// Read loads a single note by its root-relative path.
func (s *Source) Read(ctx context.Context, relPath string) (*domain.DocumentRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return s.read(filepath.ToSlash(relPath))
}

// matches reports whether a relative path passes the include and exclude
// patterns.
func (s *Source) matches(rel string) bool {
	included := false
	for _, pattern := range s.include {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range s.exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return false
		}
	}
	return true
}

func (s *Source) read(rel string) (*domain.DocumentRecord, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", rel, err)
	}

	title := meta.title()
	if title == "" {
		title = titleFromPath(rel)
	}

	return &domain.DocumentRecord{
		ID:          domain.DocumentID(rel),
		Path:        rel,
		Title:       title,
		Tags:        domain.NormaliseTags(meta.tags()),
		Content:     string(body),
		ModifiedAt:  info.ModTime(),
		Fingerprint: domain.Fingerprint(string(raw)),
	}, nil
}

// frontmatter holds the metadata fields we care about. Tags may be a YAML
// list or a comma-separated string.
type frontmatter struct {
	Title string `yaml:"title"`
	Tags  any    `yaml:"tags"`
}

func (f *frontmatter) title() string {
	return strings.TrimSpace(f.Title)
}

func (f *frontmatter) tags() []string {
	switch v := f.Tags.(type) {
	case string:
		return strings.Split(v, ",")
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			tags = append(tags, fmt.Sprint(item))
		}
		return tags
	default:
		return nil
	}
}

var frontmatterDelim = []byte("---")

// splitFrontmatter separates an optional YAML frontmatter block from the
// note body. Notes without a leading "---" line are all body.
func splitFrontmatter(raw []byte) (*frontmatter, []byte, error) {
	meta := &frontmatter{}

	trimmed := bytes.TrimPrefix(raw, []byte("\uFEFF"))
	if !bytes.HasPrefix(trimmed, frontmatterDelim) {
		return meta, raw, nil
	}

	rest := trimmed[len(frontmatterDelim):]
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	if len(rest) > 0 && rest[0] != '\n' {
		// Something like "---foo"; treat as body.
		return meta, raw, nil
	}
	rest = bytes.TrimPrefix(rest, []byte("\n"))

	end := bytes.Index(rest, append([]byte("\n"), frontmatterDelim...))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter block")
	}

	block := rest[:end]
	body := rest[end+1+len(frontmatterDelim):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	if err := yaml.Unmarshal(block, meta); err != nil {
		return nil, nil, err
	}
	return meta, body, nil
}

// titleFromPath derives a human title from the filename stem.
func titleFromPath(rel string) string {
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	return strings.ReplaceAll(strings.ReplaceAll(base, "-", " "), "_", " ")
}
