package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// --- Mock implementations ---

// searchCall records one Search invocation.
type searchCall struct {
	query  string
	source string
	topK   int
	mode   domain.SearchMode
}

// mockRetrieval implements driving.RetrievalService for testing.
type mockRetrieval struct {
	calls     []searchCall
	results   []domain.RetrievedResult
	searchErr error
}

func (m *mockRetrieval) ImportFile(_ context.Context, _ string) (int, int, error) {
	return 0, 0, nil
}

func (m *mockRetrieval) ImportFreeText(_ context.Context, _, _ string) (int, int, error) {
	return 0, 0, nil
}

func (m *mockRetrieval) ImportEmailBatch(_ context.Context, _ []domain.EmailMessage, _, _ string) (int, int, error) {
	return 0, 0, nil
}

func (m *mockRetrieval) ImportScheduleBatch(_ context.Context, _ []domain.CalendarEvent, _, _ string) (int, int, error) {
	return 0, 0, nil
}

func (m *mockRetrieval) Search(_ context.Context, query, sourceFilter string, topK int, mode domain.SearchMode) ([]domain.RetrievedResult, error) {
	m.calls = append(m.calls, searchCall{query, sourceFilter, topK, mode})
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockRetrieval) ErrorState() driving.ErrorState {
	return driving.ErrorStateNone
}

func (m *mockRetrieval) Summaries(_ context.Context) ([]domain.DocumentSummary, error) {
	return nil, nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, retrieval driving.RetrievalService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Retrieval: retrieval})
	require.NoError(t, err)
	return server
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// --- Tests ---

func TestNewServer_RequiresRetrievalService(t *testing.T) {
	_, err := NewServer(&Ports{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRetrievalService)
}

func TestHandleSearchRAG_Defaults(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)

	_, output, err := server.handleSearchRAG(context.Background(), nil, SearchRAGInput{
		Query: "find my invoice",
	})

	require.NoError(t, err)
	assert.Zero(t, output.Count)

	require.Len(t, retrieval.calls, 1)
	call := retrieval.calls[0]
	assert.Equal(t, "find my invoice", call.query)
	assert.Equal(t, defaultTopK, call.topK)
	assert.Equal(t, domain.ModeHybrid, call.mode.Kind)
	assert.Equal(t, defaultExpand, call.mode.Expand)
	assert.Equal(t, defaultBM25Weight, call.mode.BM25Weight)
}

func TestHandleSearchRAG_TopKClamped(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)
	ctx := context.Background()

	_, _, err := server.handleSearchRAG(ctx, nil, SearchRAGInput{Query: "q", TopK: 500})
	require.NoError(t, err)
	_, _, err = server.handleSearchRAG(ctx, nil, SearchRAGInput{Query: "q", TopK: -1})
	require.NoError(t, err)

	require.Len(t, retrieval.calls, 2)
	assert.Equal(t, maxTopK, retrieval.calls[0].topK)
	assert.Equal(t, defaultTopK, retrieval.calls[1].topK)
}

func TestHandleSearchRAG_ExpandClamped(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)
	ctx := context.Background()

	_, _, err := server.handleSearchRAG(ctx, nil, SearchRAGInput{
		Query: "q", Mode: "withContext", Expand: intPtr(5000),
	})
	require.NoError(t, err)
	_, _, err = server.handleSearchRAG(ctx, nil, SearchRAGInput{
		Query: "q", Mode: "withContext", Expand: intPtr(-2),
	})
	require.NoError(t, err)

	require.Len(t, retrieval.calls, 2)
	assert.Equal(t, maxExpand, retrieval.calls[0].mode.Expand)
	assert.Equal(t, 0, retrieval.calls[1].mode.Expand)
}

func TestHandleSearchRAG_ModeDispatch(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)
	ctx := context.Background()

	for _, mode := range []string{"semantic", "keyword", "withContext", "hybrid"} {
		_, _, err := server.handleSearchRAG(ctx, nil, SearchRAGInput{Query: "q", Mode: mode})
		require.NoError(t, err, "mode %s", mode)
	}

	require.Len(t, retrieval.calls, 4)
	assert.Equal(t, domain.ModeSemantic, retrieval.calls[0].mode.Kind)
	assert.Equal(t, domain.ModeKeyword, retrieval.calls[1].mode.Kind)
	assert.Equal(t, domain.ModeWithContext, retrieval.calls[2].mode.Kind)
	assert.Equal(t, domain.ModeHybrid, retrieval.calls[3].mode.Kind)
}

func TestHandleSearchRAG_UnknownMode(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)

	_, _, err := server.handleSearchRAG(context.Background(), nil, SearchRAGInput{
		Query: "q", Mode: "psychic",
	})

	var unknown *UnknownModeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "psychic", unknown.Mode)
	assert.Empty(t, retrieval.calls, "unknown mode must not reach the service")
}

func TestHandleSearchRAG_BM25WeightPassedThrough(t *testing.T) {
	retrieval := &mockRetrieval{}
	server := newTestServer(t, retrieval)

	_, _, err := server.handleSearchRAG(context.Background(), nil, SearchRAGInput{
		Query: "q", Mode: "hybrid", BM25Weight: floatPtr(0.9),
	})

	require.NoError(t, err)
	require.Len(t, retrieval.calls, 1)
	assert.Equal(t, 0.9, retrieval.calls[0].mode.BM25Weight)
}

func TestHandleSearchRAG_MapsResults(t *testing.T) {
	page := 3
	cosine := 0.8
	retrieval := &mockRetrieval{results: []domain.RetrievedResult{
		{
			SourceID:    "doc-1",
			StartPage:   &page,
			Excerpt:     "short",
			Text:        "longer text",
			BM25Score:   2.5,
			CosineScore: &cosine,
			FusedScore:  1.65,
		},
	}}
	server := newTestServer(t, retrieval)

	_, output, err := server.handleSearchRAG(context.Background(), nil, SearchRAGInput{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	require.Len(t, output.Results, 1)
	got := output.Results[0]
	assert.Equal(t, "doc-1", got.SourceID)
	require.NotNil(t, got.StartPage)
	assert.Equal(t, 3, *got.StartPage)
	assert.Equal(t, "short", got.Excerpt)
	assert.Equal(t, "longer text", got.Text)
	assert.Equal(t, 2.5, got.BM25)
	require.NotNil(t, got.Cosine)
	assert.Equal(t, 0.8, *got.Cosine)
	assert.Equal(t, 1.65, got.Score)
}

func TestHandleSearchRAG_PropagatesSearchError(t *testing.T) {
	retrieval := &mockRetrieval{searchErr: errors.New("index unavailable")}
	server := newTestServer(t, retrieval)

	_, _, err := server.handleSearchRAG(context.Background(), nil, SearchRAGInput{Query: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
}
