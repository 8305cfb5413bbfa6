package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/kestrel-labs/recall-cli/internal/core/domain"
	"github.com/kestrel-labs/recall-cli/internal/core/ports/driven"
)

type indexerFixture struct {
	source   *stubSource
	metadata *memory.MetadataStore
	vectors  *memory.VectorStore
	embedder *stubEmbedder
	indexer  *Indexer
}

func newIndexerFixture(docs ...domain.DocumentRecord) *indexerFixture {
	f := &indexerFixture{
		source:   &stubSource{docs: docs},
		metadata: memory.NewMetadataStore(),
		vectors:  memory.NewVectorStore(),
		embedder: newStubEmbedder(3),
	}
	f.indexer = NewIndexer(f.source, f.metadata, f.vectors, f.embedder, IndexerConfig{})
	return f
}

func TestIndexer_InitialRunIndexesEverything(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("robotics.md", "Robotics", "Servo motors and joints."),
		note("cooking.md", "Cooking", "Pasta and sauces."),
		note("travel.md", "Travel", "Packing lists."),
	)

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 0, report.Unchanged)
	assert.Empty(t, report.Failures)
	assert.NotEmpty(t, report.RunID)

	count, err := f.metadata.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	vcount, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, vcount)
}

func TestIndexer_SecondRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("a.md", "Alpha", "First note."),
		note("b.md", "Beta", "Second note."),
	)

	_, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)
	embedsAfterFirst := f.embedder.callCount()

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Unchanged)
	assert.Equal(t, embedsAfterFirst, f.embedder.callCount(), "unchanged notes must not be re-embedded")
}

func TestIndexer_ModifiedNoteIsReindexed(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("a.md", "Alpha", "First note."),
		note("b.md", "Beta", "Second note."),
	)

	_, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	f.source.docs[0] = note("a.md", "Alpha", "First note, revised.")

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Unchanged)

	record, err := f.metadata.Get(ctx, domain.DocumentID("a.md"))
	require.NoError(t, err)
	assert.Equal(t, "First note, revised.", record.Content)

	entry, err := f.vectors.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Fingerprint, entry.Fingerprint)
}

func TestIndexer_DeletedNoteIsRemovedFromBothStores(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("keep.md", "Keep", "Still here."),
		note("gone.md", "Gone", "About to vanish."),
	)

	_, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	goneID := domain.DocumentID("gone.md")
	f.source.docs = f.source.docs[:1]

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	_, err = f.metadata.Get(ctx, goneID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.vectors.Get(ctx, goneID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexer_EmbedFailureIsIsolatedAndRetried(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("good.md", "Good", "Embeds fine."),
		note("bad.md", "Bad", "Embedding breaks."),
	)
	f.embedder.failFor["Embedding breaks."] = true

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad.md", report.Failures[0].Path)

	badID := domain.DocumentID("bad.md")
	_, err = f.metadata.Get(ctx, badID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "failed note must not be partially written")

	// Once embedding works again, the next run picks the note up.
	f.embedder.failFor = map[string]bool{}

	report, err = f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Empty(t, report.Failures)

	_, err = f.metadata.Get(ctx, badID)
	require.NoError(t, err)
}

func TestIndexer_ForceFullReembedsEverything(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(
		note("a.md", "Alpha", "First note."),
		note("b.md", "Beta", "Second note."),
	)

	_, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	report, err := f.indexer.Synchronize(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 0, report.Unchanged)
}

func TestIndexer_RejectsConcurrentRuns(t *testing.T) {
	f := newIndexerFixture(note("a.md", "Alpha", "Content."))

	f.indexer.syncMu.Lock()
	defer f.indexer.syncMu.Unlock()

	_, err := f.indexer.Synchronize(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
}

func TestIndexer_DimensionMismatchAbortsRun(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(note("a.md", "Alpha", "Content."))

	// Store built by a different model.
	require.NoError(t, f.vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "other", Embedding: []float32{1, 0, 0, 0},
	}))

	_, err := f.indexer.Synchronize(ctx, false)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexer_SourceIssuesBecomeFailures(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(note("ok.md", "OK", "Readable."))
	f.source.issues = []driven.SourceIssue{
		{Path: "broken.md", Err: domain.ErrSourceUnreadable},
	}

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken.md", report.Failures[0].Path)
}

func TestIndexer_OrphanVectorsAreRemoved(t *testing.T) {
	ctx := context.Background()
	f := newIndexerFixture(note("a.md", "Alpha", "Content."))

	require.NoError(t, f.vectors.Put(ctx, &domain.IndexEntry{
		DocumentID: "orphan", Embedding: []float32{0, 1, 0},
	}))

	_, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)

	_, err = f.vectors.Get(ctx, "orphan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexer_StaleVectorIsRepaired(t *testing.T) {
	ctx := context.Background()
	doc := note("a.md", "Alpha", "Current content.")
	f := newIndexerFixture(doc)

	// Record is current but the index entry carries an old fingerprint.
	require.NoError(t, f.metadata.Put(ctx, &doc))
	require.NoError(t, f.vectors.Put(ctx, &domain.IndexEntry{
		DocumentID:  doc.ID,
		Embedding:   []float32{0, 0, 1},
		Fingerprint: "stale",
	}))

	report, err := f.indexer.Synchronize(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	entry, err := f.vectors.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Fingerprint, entry.Fingerprint)
}

func TestIndexer_StatusReflectsIdleState(t *testing.T) {
	f := newIndexerFixture()

	status, err := f.indexer.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestIndexer_PathCollisionAborts(t *testing.T) {
	docA := note("a.md", "Alpha", "One.")
	docB := note("b.md", "Beta", "Two.")
	docB.ID = docA.ID

	f := newIndexerFixture(docA, docB)

	_, err := f.indexer.Synchronize(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrStoreCorrupted)
}
