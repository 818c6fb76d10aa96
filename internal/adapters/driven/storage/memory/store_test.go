package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// --- Mock implementations ---

// fixedEmbedder returns the same vector for every text, or an error.
type fixedEmbedder struct {
	vec []float32
	err error
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int   { return len(f.vec) }
func (f *fixedEmbedder) ModelName() string { return "fixed" }
func (f *fixedEmbedder) Close() error      { return nil }

// --- Tests ---

func TestStore_Ingest_TracksCompletedSummary(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	units, chunks, err := store.Ingest(ctx, "some text to index", "doc-1", "Note", domain.IngestConfig{ChunkSize: 10, ChunkOverlap: 0})

	require.NoError(t, err)
	assert.Equal(t, len("some text to index"), units)
	assert.Equal(t, 2, chunks)

	summary, err := store.Summary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Note", summary.Title)
	assert.Equal(t, "text", summary.Kind)
	assert.Equal(t, domain.StatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.Version)
	assert.Equal(t, 2, summary.ChunkCount)
	assert.Equal(t, int64(len("some text to index")), summary.SizeBytes)
}

func TestStore_Ingest_ReingestBumpsVersionAndReplacesChunks(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 100, ChunkOverlap: 0}

	_, _, err := store.Ingest(ctx, "first body", "doc-1", "Note", cfg)
	require.NoError(t, err)
	_, chunks, err := store.Ingest(ctx, "second body entirely", "doc-1", "Note", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)

	summary, err := store.Summary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Version)

	results, err := store.SearchContextual(ctx, "first", "", 5, 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotContains(t, r.Text, "first body")
	}
}

func TestStore_Ingest_EmbedFailureMarksFailed(t *testing.T) {
	store := NewStore(&fixedEmbedder{err: errors.New("model gone")})
	ctx := context.Background()

	_, _, err := store.Ingest(ctx, "content", "doc-1", "Note", domain.IngestConfig{})

	require.Error(t, err)

	summary, err := store.Summary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, summary.Status)
	assert.Contains(t, summary.FailureReason, "model gone")
}

func TestStore_IngestFile_CountsPagesByFormFeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	content := "page one\fpage two\fpage three"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store := NewStore(nil)
	ctx := context.Background()

	pages, chunks, err := store.IngestFile(ctx, path, "file-1", domain.IngestConfig{ChunkSize: 9, ChunkOverlap: 0})

	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Positive(t, chunks)

	summary, err := store.Summary(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "file", summary.Kind)
	assert.Equal(t, "report.txt", summary.Title)
	assert.Equal(t, 3, summary.PageCount)

	// File hits carry a start page; later chunks start on later pages.
	results, err := store.SearchContextual(ctx, "page", "", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotNil(t, r.StartPage)
		assert.GreaterOrEqual(t, *r.StartPage, 1)
		assert.LessOrEqual(t, *r.StartPage, 3)
	}
}

func TestStore_SearchContextual_RanksByTermFrequency(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 500, ChunkOverlap: 0}

	_, _, err := store.Ingest(ctx, "apple apple apple", "heavy", "h", cfg)
	require.NoError(t, err)
	_, _, err = store.Ingest(ctx, "apple banana cherry", "light", "l", cfg)
	require.NoError(t, err)

	results, err := store.SearchContextual(ctx, "apple", "", 5, 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "heavy", results[0].SourceID)
	assert.Greater(t, results[0].BM25Score, results[1].BM25Score)
	// Text-kind hits have no page attribution.
	assert.Nil(t, results[0].StartPage)
}

func TestStore_SearchContextual_ExpandJoinsNeighbours(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	// Chunks of 10: "aaaaaaaaaa", "needle1234", "zzzzzzzzzz".
	content := "aaaaaaaaaa" + "needle1234" + "zzzzzzzzzz"
	_, _, err := store.Ingest(ctx, content, "doc-1", "n", domain.IngestConfig{ChunkSize: 10, ChunkOverlap: 0})
	require.NoError(t, err)

	results, err := store.SearchContextual(ctx, "needle1234", "", 1, 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "needle1234", results[0].Excerpt)
	assert.Equal(t, "aaaaaaaaaa\nneedle1234\nzzzzzzzzzz", results[0].Text)
}

func TestStore_SearchContextual_LimitApplies(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 500, ChunkOverlap: 0}

	for _, id := range []string{"a", "b", "c", "d"} {
		_, _, err := store.Ingest(ctx, "common term here", id, id, cfg)
		require.NoError(t, err)
	}

	results, err := store.SearchContextual(ctx, "common", "", 2, 0)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStore_SearchContextual_SourceFilter(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 500, ChunkOverlap: 0}

	_, _, err := store.Ingest(ctx, "shared words", "one", "1", cfg)
	require.NoError(t, err)
	_, _, err = store.Ingest(ctx, "shared words", "two", "2", cfg)
	require.NoError(t, err)

	results, err := store.SearchContextual(ctx, "shared", "two", 10, 0)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "two", r.SourceID)
	}
}

func TestStore_SearchFused_BlendsScores(t *testing.T) {
	// All chunks embed to the same vector, so cosine is 1 for the
	// matching dimension and fusion is dominated by the lexical share.
	store := NewStore(&fixedEmbedder{vec: []float32{1, 0}})
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 500, ChunkOverlap: 0}

	_, _, err := store.Ingest(ctx, "keyword keyword keyword", "lexical", "l", cfg)
	require.NoError(t, err)
	_, _, err = store.Ingest(ctx, "unrelated content", "other", "o", cfg)
	require.NoError(t, err)

	results, err := store.SearchFused(ctx, "keyword", "", 5, 0, 0.5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "lexical", results[0].SourceID)
	require.NotNil(t, results[0].CosineScore)
	assert.InDelta(t, 1.0, *results[0].CosineScore, 1e-6)
	// Full lexical share plus full cosine share.
	assert.InDelta(t, 1.0, results[0].FusedScore, 1e-6)
}

func TestStore_SearchFused_NoEmbedderIsLexicalOnly(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	_, _, err := store.Ingest(ctx, "plain words", "doc-1", "n", domain.IngestConfig{ChunkSize: 500})
	require.NoError(t, err)

	results, err := store.SearchFused(ctx, "plain", "", 5, 0, 0.5)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Nil(t, results[0].CosineScore)
}

func TestStore_SearchFused_EmbedQueryFailure(t *testing.T) {
	embedder := &fixedEmbedder{vec: []float32{1}}
	store := NewStore(embedder)
	ctx := context.Background()

	_, _, err := store.Ingest(ctx, "content", "doc-1", "n", domain.IngestConfig{})
	require.NoError(t, err)

	embedder.err = errors.New("model unloaded")
	_, err = store.SearchFused(ctx, "content", "", 5, 0, 0.5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}

func TestStore_Summary_NotFound(t *testing.T) {
	store := NewStore(nil)

	_, err := store.Summary(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListSummaries_SortedBySourceID(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cfg := domain.IngestConfig{ChunkSize: 500, ChunkOverlap: 0}

	for _, id := range []string{"zulu", "alpha", "mike"} {
		_, _, err := store.Ingest(ctx, "text", id, id, cfg)
		require.NoError(t, err)
	}

	summaries, err := store.ListSummaries(ctx)

	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "alpha", summaries[0].SourceID)
	assert.Equal(t, "mike", summaries[1].SourceID)
	assert.Equal(t, "zulu", summaries[2].SourceID)
}

func TestExcerpt_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", excerptLen+50)

	got := excerpt(long)

	assert.Len(t, got, excerptLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
