package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driving"
	"github.com/kestrel-labs/recall-cli/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// IndexerConfig configures a synchronize run.
type IndexerConfig struct {
	// EmbedTimeout bounds each embedding request (default: 30s).
	EmbedTimeout time.Duration

	// EmbedRate throttles embedding requests per second during bulk
	// indexing. Zero disables throttling.
	EmbedRate float64
}

func (c IndexerConfig) withDefaults() IndexerConfig {
	if c.EmbedTimeout == 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	return c
}

// Indexer reconciles the document source against the metadata and vector
// stores. It is the single writer for both stores: synchronize runs to
// completion as one logical unit of work, and a second call while one is
// in flight is rejected with domain.ErrSyncInProgress.
type Indexer struct {
	source   driven.DocumentSource
	metadata driven.MetadataStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	cfg      IndexerConfig
	limiter  *rate.Limiter

	// syncMu serialises synchronize runs. statusMu guards the status
	// snapshot read by concurrent Status calls.
	syncMu   sync.Mutex
	statusMu sync.RWMutex
	status   driving.SyncStatus
}

// NewIndexer creates an indexer over the given source and store pair.
// The embedder is required for indexing: without embeddings there is
// nothing to write to the vector store.
func NewIndexer(
	source driven.DocumentSource,
	metadata driven.MetadataStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	cfg IndexerConfig,
) *Indexer {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1)
	}

	return &Indexer{
		source:   source,
		metadata: metadata,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg,
		limiter:  limiter,
	}
}

// CheckDimensions verifies the embedding service's dimension against the
// vector store's. A mismatch is a fatal configuration error: re-index with
// forceFull after switching models instead.
func (i *Indexer) CheckDimensions(ctx context.Context) error {
	if i.embedder == nil {
		return nil
	}
	storeDims, err := i.vectors.Dimensions(ctx)
	if err != nil {
		return fmt.Errorf("read store dimensions: %w", err)
	}
	if storeDims != 0 && storeDims != i.embedder.Dimensions() {
		return fmt.Errorf("%w: store has %d, model %q produces %d",
			domain.ErrDimensionMismatch, storeDims, i.embedder.ModelName(), i.embedder.Dimensions())
	}
	return nil
}

// Synchronize enumerates the source, classifies every document as
// unchanged, new, modified or deleted against the metadata store's
// fingerprint snapshot, and applies minimal updates to both stores.
// Per-document failures are isolated and reported in the SyncReport;
// only corpus-level failures abort the run.
func (i *Indexer) Synchronize(ctx context.Context, forceFull bool) (*domain.SyncReport, error) {
	if !i.syncMu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer i.syncMu.Unlock()

	i.setStatus(driving.SyncStatus{Running: true})
	defer i.setStatus(driving.SyncStatus{Running: false})

	report := &domain.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	logger.Section("Synchronize")
	logger.Info("Starting sync run %s (full=%t)", report.RunID, forceFull)

	if err := i.CheckDimensions(ctx); err != nil {
		return nil, err
	}

	docs, issues, err := i.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate source: %w", err)
	}
	for _, issue := range issues {
		logger.Warn("Unreadable document %s: %v", issue.Path, issue.Err)
		report.Failures = append(report.Failures, domain.SyncFailure{
			DocumentID: domain.DocumentID(issue.Path),
			Path:       issue.Path,
			Reason:     fmt.Sprintf("%v: %v", domain.ErrSourceUnreadable, issue.Err),
		})
	}

	// An ID collision between distinct source paths would silently
	// overwrite one document with another. Abort instead.
	if err := detectCollisions(docs); err != nil {
		return nil, err
	}

	snapshot, err := i.metadata.Fingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot metadata store: %w", err)
	}

	staleVectors, orphanVectors, err := i.auditVectors(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("audit vector store: %w", err)
	}

	sourceIDs := make(map[string]struct{}, len(docs))
	for idx := range docs {
		doc := &docs[idx]
		sourceIDs[doc.ID] = struct{}{}

		prior, known := snapshot[doc.ID]
		switch {
		case !known:
			if i.indexDocument(ctx, doc, report) {
				report.Added++
			}
		case forceFull || prior != doc.Fingerprint || staleVectors[doc.ID]:
			if i.indexDocument(ctx, doc, report) {
				report.Updated++
			}
		default:
			report.Unchanged++
		}
		i.bumpStatus(report)
	}

	// Documents present in the stores but gone from the source.
	for id := range snapshot {
		if _, ok := sourceIDs[id]; ok {
			continue
		}
		if err := i.removeDocument(ctx, id); err != nil {
			logger.Warn("Failed to remove %s: %v", id, err)
			report.Failures = append(report.Failures, domain.SyncFailure{
				DocumentID: id,
				Reason:     err.Error(),
			})
			continue
		}
		report.Removed++
	}

	// Vector entries with no matching record are treated as deleted and
	// repaired here; the reverse case was classified as modified above.
	for _, id := range orphanVectors {
		if _, ok := sourceIDs[id]; ok {
			continue
		}
		if err := i.vectors.Delete(ctx, id); err != nil {
			logger.Warn("Failed to remove orphan vector %s: %v", id, err)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info("Sync complete: %d added, %d updated, %d removed, %d unchanged, %d failed",
		report.Added, report.Updated, report.Removed, report.Unchanged, len(report.Failures))

	return report, nil
}

// Status returns a snapshot of the current synchronisation state.
func (i *Indexer) Status(_ context.Context) (*driving.SyncStatus, error) {
	i.statusMu.RLock()
	defer i.statusMu.RUnlock()
	status := i.status
	return &status, nil
}

// indexDocument embeds a document and upserts its record and index entry
// as one logical step. If embedding fails the document is left in its
// prior state and reported as a failure, never partially written.
func (i *Indexer) indexDocument(ctx context.Context, doc *domain.DocumentRecord, report *domain.SyncReport) bool {
	embedding, err := i.embed(ctx, doc.Content)
	if err != nil {
		logger.Warn("Embedding failed for %s: %v", doc.Path, err)
		report.Failures = append(report.Failures, domain.SyncFailure{
			DocumentID: doc.ID,
			Path:       doc.Path,
			Reason:     fmt.Sprintf("%v: %v", domain.ErrEmbeddingUnavailable, err),
		})
		return false
	}

	entry := &domain.IndexEntry{
		DocumentID:  doc.ID,
		Embedding:   embedding,
		Fingerprint: doc.Fingerprint,
	}

	// Vector first, record second: a reader resolving hits through the
	// metadata store never surfaces a document whose entry is missing.
	if err := i.vectors.Put(ctx, entry); err != nil {
		report.Failures = append(report.Failures, domain.SyncFailure{
			DocumentID: doc.ID,
			Path:       doc.Path,
			Reason:     fmt.Sprintf("store index entry: %v", err),
		})
		return false
	}
	if err := i.metadata.Put(ctx, doc); err != nil {
		report.Failures = append(report.Failures, domain.SyncFailure{
			DocumentID: doc.ID,
			Path:       doc.Path,
			Reason:     fmt.Sprintf("store record: %v", err),
		})
		return false
	}

	logger.Debug("Indexed %s (%s)", doc.Path, doc.ID)
	return true
}

// removeDocument deletes a document's record and index entry together.
func (i *Indexer) removeDocument(ctx context.Context, id string) error {
	if err := i.metadata.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := i.vectors.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete index entry: %w", err)
	}
	logger.Debug("Removed %s", id)
	return nil
}

// embed requests an embedding with the configured timeout and throttle.
func (i *Indexer) embed(ctx context.Context, content string) ([]float32, error) {
	if i.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	embedCtx, cancel := context.WithTimeout(ctx, i.cfg.EmbedTimeout)
	defer cancel()

	return i.embedder.Embed(embedCtx, content)
}

// auditVectors compares the vector store against the metadata snapshot.
// It returns the set of documents whose entry is missing or carries a
// stale fingerprint, and the IDs of entries with no record at all.
func (i *Indexer) auditVectors(ctx context.Context, snapshot map[string]string) (map[string]bool, []string, error) {
	ids, err := i.vectors.IDs(ctx)
	if err != nil {
		return nil, nil, err
	}

	stale := make(map[string]bool)
	present := make(map[string]bool, len(ids))
	var orphans []string

	for _, id := range ids {
		fingerprint, ok := snapshot[id]
		if !ok {
			orphans = append(orphans, id)
			continue
		}
		present[id] = true

		entry, err := i.vectors.Get(ctx, id)
		if err != nil || entry.Fingerprint != fingerprint {
			stale[id] = true
		}
	}

	// Records without any index entry must be re-embedded.
	for id := range snapshot {
		if !present[id] {
			stale[id] = true
		}
	}

	return stale, orphans, nil
}

func (i *Indexer) setStatus(status driving.SyncStatus) {
	i.statusMu.Lock()
	defer i.statusMu.Unlock()
	i.status = status
}

func (i *Indexer) bumpStatus(report *domain.SyncReport) {
	i.statusMu.Lock()
	defer i.statusMu.Unlock()
	i.status.DocumentsProcessed++
	i.status.FailureCount = len(report.Failures)
}

// detectCollisions checks that no two distinct source paths map to the
// same document ID.
func detectCollisions(docs []domain.DocumentRecord) error {
	paths := make(map[string]string, len(docs))
	for idx := range docs {
		if prior, ok := paths[docs[idx].ID]; ok && prior != docs[idx].Path {
			return fmt.Errorf("%w: id collision between %q and %q",
				domain.ErrStoreCorrupted, prior, docs[idx].Path)
		}
		paths[docs[idx].ID] = docs[idx].Path
	}
	return nil
}
