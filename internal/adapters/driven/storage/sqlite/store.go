package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kestrel-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the metadata
// store, vector store and response cache through wrapper types. Keeping
// all three in one WAL-mode database gives readers a consistent view of a
// document's record/entry pair while the indexer updates it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data/recall.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "recall.db")

	// WAL mode lets searches run concurrently with an in-flight sync.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MetadataStore returns a MetadataStore interface backed by this store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// ResponseCache returns a ResponseCache interface backed by this store.
func (s *Store) ResponseCache() driven.ResponseCache {
	return &responseCache{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// Get retrieves a record by ID.
func (s *metadataStore) Get(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, path, title, tags, content, modified_at, fingerprint
		FROM documents WHERE id = ?
	`, id)

	record, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	return record, nil
}

// Put stores or updates a record.
func (s *metadataStore) Put(ctx context.Context, record *domain.DocumentRecord) error {
	tagsJSON, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, path, title, tags, content, modified_at, fingerprint, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			tags = excluded.tags,
			content = excluded.content,
			modified_at = excluded.modified_at,
			fingerprint = excluded.fingerprint,
			indexed_at = excluded.indexed_at
	`, record.ID, record.Path, record.Title, string(tagsJSON), record.Content,
		record.ModifiedAt.UTC(), record.Fingerprint, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *metadataStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Scan returns all records matching the filter. Tag filtering happens in
// Go on the decoded tag set: a JSON LIKE would match tag substrings.
func (s *metadataStore) Scan(ctx context.Context, filter driven.MetadataFilter) ([]domain.DocumentRecord, error) {
	query := `
		SELECT id, path, title, tags, content, modified_at, fingerprint
		FROM documents
	`
	var conditions []string
	var args []any

	if !filter.After.IsZero() {
		conditions = append(conditions, "modified_at >= ?")
		args = append(args, filter.After.UTC())
	}
	if !filter.Before.IsZero() {
		conditions = append(conditions, "modified_at <= ?")
		args = append(args, filter.Before.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	required := domain.NormaliseTags(filter.Tags)

	var records []domain.DocumentRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if !hasAllTags(record, required) {
			continue
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// Fingerprints returns the current id -> fingerprint snapshot.
func (s *metadataStore) Fingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id, fingerprint FROM documents")
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]string)
	for rows.Next() {
		var id, fingerprint string
		if err := rows.Scan(&id, &fingerprint); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		snapshot[id] = fingerprint
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprints: %w", err)
	}

	return snapshot, nil
}

// Count returns the number of stored records.
func (s *metadataStore) Count(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Put stores or updates an index entry. The first entry fixes the store's
// dimension; later writes of a different dimension are rejected.
func (s *vectorStore) Put(ctx context.Context, entry *domain.IndexEntry) error {
	dims, err := s.Dimensions(ctx)
	if err != nil {
		return err
	}
	if dims != 0 && dims != len(entry.Embedding) {
		return fmt.Errorf("%w: store has %d, entry has %d",
			domain.ErrDimensionMismatch, dims, len(entry.Embedding))
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO vectors (document_id, fingerprint, dimensions, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding
	`, entry.DocumentID, entry.Fingerprint, len(entry.Embedding),
		float32SliceToBytes(entry.Embedding))

	if err != nil {
		return fmt.Errorf("saving index entry: %w", err)
	}
	return nil
}

// Get retrieves an index entry by document ID.
func (s *vectorStore) Get(ctx context.Context, id string) (*domain.IndexEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, fingerprint, embedding FROM vectors WHERE document_id = ?
	`, id)

	var entry domain.IndexEntry
	var blob []byte
	if err := row.Scan(&entry.DocumentID, &entry.Fingerprint, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index entry: %w", err)
	}

	entry.Embedding = bytesToFloat32Slice(blob)
	return &entry, nil
}

// Delete removes an index entry.
func (s *vectorStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	return nil
}

// Nearest finds the k entries most similar to the query vector using
// brute-force cosine similarity. Personal corpora are small enough that a
// linear scan beats maintaining an approximate index.
func (s *vectorStore) Nearest(
	ctx context.Context, query []float32, candidateIDs []string, k int,
) ([]driven.VectorHit, error) {
	sqlQuery := "SELECT document_id, embedding FROM vectors"
	var args []any

	if candidateIDs != nil {
		if len(candidateIDs) == 0 {
			return nil, nil
		}
		placeholders := strings.Repeat("?,", len(candidateIDs))
		sqlQuery += " WHERE document_id IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, id := range candidateIDs {
			args = append(args, id)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		hits = append(hits, driven.VectorHit{
			DocumentID: id,
			Similarity: normalisedCosine(query, embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].DocumentID < hits[b].DocumentID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// IDs returns all stored document IDs.
func (s *vectorStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT document_id FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("querying vector ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning vector id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vector ids: %w", err)
	}

	return ids, nil
}

// Dimensions returns the store's embedding dimension, or 0 when empty.
func (s *vectorStore) Dimensions(ctx context.Context) (int, error) {
	var dims sql.NullInt64
	row := s.store.db.QueryRowContext(ctx, "SELECT MIN(dimensions) FROM vectors")
	if err := row.Scan(&dims); err != nil {
		return 0, fmt.Errorf("reading dimensions: %w", err)
	}
	if !dims.Valid {
		return 0, nil
	}
	return int(dims.Int64), nil
}

// Count returns the number of stored entries.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// ==================== Response Cache ====================

// responseCache implements driven.ResponseCache.
type responseCache struct {
	store *Store
}

var _ driven.ResponseCache = (*responseCache)(nil)

// Get returns a non-expired entry and bumps its hit count. Expiry is
// checked at read time; expired rows stay until purged.
func (s *responseCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT cache_key, answer, source_ids, created_at, expires_at, hit_count
		FROM response_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().UTC())

	var entry domain.CacheEntry
	var sourceJSON string
	var createdAt, expiresAt time.Time
	if err := row.Scan(&entry.Key, &entry.Answer, &sourceJSON, &createdAt, &expiresAt, &entry.HitCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(sourceJSON), &entry.SourceIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling source ids: %w", err)
	}
	entry.CreatedAt = createdAt
	entry.TTL = expiresAt.Sub(createdAt)

	_, err := s.store.db.ExecContext(ctx, `
		UPDATE response_cache SET hit_count = hit_count + 1 WHERE cache_key = ?
	`, key)
	if err != nil {
		return nil, fmt.Errorf("updating hit count: %w", err)
	}
	entry.HitCount++

	return &entry, nil
}

// Put stores or replaces the entry for its key. Last write wins.
func (s *responseCache) Put(ctx context.Context, entry *domain.CacheEntry) error {
	sourceJSON, err := json.Marshal(entry.SourceIDs)
	if err != nil {
		return fmt.Errorf("marshalling source ids: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, answer, source_ids, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(cache_key) DO UPDATE SET
			answer = excluded.answer,
			source_ids = excluded.source_ids,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, entry.Key, entry.Answer, string(sourceJSON),
		createdAt.UTC(), createdAt.Add(entry.TTL).UTC())

	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows.
func (s *responseCache) PurgeExpired(ctx context.Context) (int, error) {
	result, err := s.store.db.ExecContext(ctx,
		"DELETE FROM response_cache WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}
	return int(deleted), nil
}

// Clear deletes all entries.
func (s *responseCache) Clear(ctx context.Context) (int, error) {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM response_cache")
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared rows: %w", err)
	}
	return int(deleted), nil
}

// Stats reports cache occupancy and usage.
func (s *responseCache) Stats(ctx context.Context) (*driven.CacheStats, error) {
	now := time.Now().UTC()

	var stats driven.CacheStats
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(hit_count), 0)
		FROM response_cache
	`, now)
	if err := row.Scan(&stats.Total, &stats.Valid, &stats.Hits); err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}

	stats.Expired = stats.Total - stats.Valid
	return &stats, nil
}

// ==================== Helpers ====================

// scanRecord scans a document row via the given scan function.
func scanRecord(scan func(...any) error) (*domain.DocumentRecord, error) {
	var record domain.DocumentRecord
	var tagsJSON string
	var modifiedAt time.Time

	if err := scan(&record.ID, &record.Path, &record.Title, &tagsJSON,
		&record.Content, &modifiedAt, &record.Fingerprint); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &record.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	record.ModifiedAt = modifiedAt

	return &record, nil
}

// hasAllTags reports whether the record carries every required tag.
func hasAllTags(record *domain.DocumentRecord, required []string) bool {
	for _, tag := range required {
		if !record.HasTag(tag) {
			return false
		}
	}
	return true
}

// normalisedCosine maps cosine similarity from [-1,1] to [0,1].
func normalisedCosine(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cosine + 1) / 2
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
