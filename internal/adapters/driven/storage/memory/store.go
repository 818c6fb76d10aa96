// Package memory provides an in-memory index store. It backs tests
// and serves as a zero-setup fallback when no database is configured.
// Keyword relevance uses plain term-frequency scoring.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/chunk"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// excerptLen caps the display snippet length.
const excerptLen = 160

// chunkRow is one indexed chunk.
type chunkRow struct {
	position  int
	startPage int
	content   string
	embedding []float32
}

// record is a tracked document with its chunks.
type record struct {
	summary domain.DocumentSummary
	chunks  []chunkRow
}

// Store is a map-backed index store.
type Store struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	docs     map[string]*record
}

// NewStore creates an in-memory index store. The embedder is optional;
// when nil, cosine scores are zero and retrieval is lexical only.
func NewStore(embedder driven.EmbeddingService) *Store {
	return &Store{
		embedder: embedder,
		docs:     make(map[string]*record),
	}
}

// Ingest chunks, embeds and indexes content as one document.
func (s *Store) Ingest(ctx context.Context, content, sourceID, name string, cfg domain.IngestConfig) (int, int, error) {
	return s.ingest(ctx, content, sourceID, name, "text", 0, cfg)
}

// IngestFile reads the file at path and indexes its content.
// Pages are counted by form-feed separators.
func (s *Store) IngestFile(ctx context.Context, path, sourceID string, cfg domain.IngestConfig) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read file: %w", err)
	}

	content := string(data)
	pages := strings.Count(content, "\f") + 1

	_, chunks, err := s.ingest(ctx, content, sourceID, filepath.Base(path), "file", pages, cfg)
	if err != nil {
		return 0, 0, err
	}
	return pages, chunks, nil
}

// ingest runs the shared pipeline: track the summary, chunk, embed,
// store, advancing the document status machine at each stage.
func (s *Store) ingest(ctx context.Context, content, sourceID, name, kind string, pages int, cfg domain.IngestConfig) (int, int, error) {
	summary := s.openSummary(sourceID, name, kind)
	s.advance(summary, domain.StatusQueued)
	s.advance(summary, domain.StatusExtracting)
	s.advance(summary, domain.StatusChunking)

	pieces := chunk.Split(content, cfg)

	var embeddings [][]float32
	if s.embedder != nil {
		var err error
		embeddings, err = s.embedder.EmbedBatch(ctx, pieces)
		if err != nil {
			s.fail(summary, err.Error())
			s.saveSummary(summary)
			return 0, 0, fmt.Errorf("embed chunks: %w", err)
		}
	}

	s.advance(summary, domain.StatusWriting)

	step := chunkStep(cfg)
	rows := make([]chunkRow, len(pieces))
	for i, piece := range pieces {
		rows[i] = chunkRow{
			position: i,
			content:  piece,
		}
		if embeddings != nil {
			rows[i].embedding = embeddings[i]
		}
		if kind == "file" {
			// Cheap page attribution: count form feeds up to the
			// chunk's start offset.
			offset := i * step
			if offset > len(content) {
				offset = len(content)
			}
			rows[i].startPage = strings.Count(content[:offset], "\f") + 1
		}
	}

	summary.SizeBytes = int64(len(content))
	summary.PageCount = pages
	summary.ChunkCount = len(rows)
	s.advance(summary, domain.StatusCompleted)

	s.mu.Lock()
	s.docs[sourceID] = &record{summary: *summary, chunks: rows}
	s.mu.Unlock()

	return len(content), len(rows), nil
}

// openSummary returns the tracked summary for sourceID, creating an
// idle one on first reference and bumping the version otherwise.
func (s *Store) openSummary(sourceID, name, kind string) *domain.DocumentSummary {
	s.mu.RLock()
	existing, ok := s.docs[sourceID]
	s.mu.RUnlock()

	if ok {
		summary := existing.summary
		summary.Version++
		summary.Status = domain.StatusIdle
		summary.FailureReason = ""
		summary.UpdatedAt = time.Now()
		return &summary
	}

	now := time.Now()
	return &domain.DocumentSummary{
		SourceID:  sourceID,
		Title:     name,
		Kind:      kind,
		Version:   1,
		Status:    domain.StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// advance moves the summary to next when the machine permits it.
func (s *Store) advance(summary *domain.DocumentSummary, next domain.DocumentStatus) {
	if summary.Status.CanTransition(next) {
		summary.Status = next
		summary.UpdatedAt = time.Now()
	}
}

// fail marks the summary failed with a reason.
func (s *Store) fail(summary *domain.DocumentSummary, reason string) {
	if summary.Status.CanTransition(domain.StatusFailed) {
		summary.Status = domain.StatusFailed
		summary.FailureReason = reason
		summary.UpdatedAt = time.Now()
	}
}

// saveSummary persists a summary without touching chunks, so failed
// ingestions remain visible in status listings.
func (s *Store) saveSummary(summary *domain.DocumentSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[summary.SourceID]; ok {
		existing.summary = *summary
		return
	}
	s.docs[summary.SourceID] = &record{summary: *summary}
}

// scored pairs a chunk with its relevance scores during ranking.
type scored struct {
	sourceID string
	row      chunkRow
	bm25     float64
	cosine   float64
	fused    float64
}

// SearchContextual runs lexical retrieval with context expansion.
func (s *Store) SearchContextual(_ context.Context, query, sourceFilter string, limit, expand int) ([]domain.RetrievedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.lexicalCandidates(query, sourceFilter)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].bm25 > candidates[j].bm25
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]domain.RetrievedResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.RetrievedResult{
			SourceID:   c.sourceID,
			StartPage:  s.startPage(c),
			Excerpt:    excerpt(c.row.content),
			Text:       s.expandText(c, expand),
			BM25Score:  c.bm25,
			FusedScore: c.bm25,
		})
	}
	return results, nil
}

// SearchFused runs hybrid retrieval, blending min-max-normalized
// lexical scores with cosine similarity by bm25Weight.
func (s *Store) SearchFused(ctx context.Context, query, sourceFilter string, limit, expand int, bm25Weight float64) ([]domain.RetrievedResult, error) {
	var queryVec []float32
	if s.embedder != nil {
		var err error
		queryVec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.lexicalCandidates(query, sourceFilter)

	// Min-max normalize the lexical scores so they blend with cosine
	// on comparable scales.
	var maxBM25 float64
	for _, c := range candidates {
		if c.bm25 > maxBM25 {
			maxBM25 = c.bm25
		}
	}

	for i := range candidates {
		norm := 0.0
		if maxBM25 > 0 {
			norm = candidates[i].bm25 / maxBM25
		}
		if queryVec != nil {
			candidates[i].cosine = dot(queryVec, candidates[i].row.embedding)
		}
		candidates[i].fused = bm25Weight*norm + (1-bm25Weight)*candidates[i].cosine
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].fused > candidates[j].fused
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]domain.RetrievedResult, 0, len(candidates))
	for _, c := range candidates {
		r := domain.RetrievedResult{
			SourceID:   c.sourceID,
			StartPage:  s.startPage(c),
			Excerpt:    excerpt(c.row.content),
			Text:       s.expandText(c, expand),
			BM25Score:  c.bm25,
			FusedScore: c.fused,
		}
		if queryVec != nil {
			cosine := c.cosine
			r.CosineScore = &cosine
		}
		results = append(results, r)
	}
	return results, nil
}

// lexicalCandidates scores every chunk by query term frequency.
// Callers hold the read lock.
func (s *Store) lexicalCandidates(query, sourceFilter string) []scored {
	terms := strings.Fields(strings.ToLower(query))

	var candidates []scored
	for sourceID, rec := range s.docs {
		if sourceFilter != "" && sourceID != sourceFilter {
			continue
		}
		for _, row := range rec.chunks {
			content := strings.ToLower(row.content)
			score := 0.0
			for _, term := range terms {
				score += float64(strings.Count(content, term))
			}
			candidates = append(candidates, scored{
				sourceID: sourceID,
				row:      row,
				bm25:     score,
			})
		}
	}
	return candidates
}

// expandText appends up to expand neighbouring chunks on each side of
// the hit. Callers hold the read lock.
func (s *Store) expandText(c scored, expand int) string {
	if expand <= 0 {
		return c.row.content
	}

	rec, ok := s.docs[c.sourceID]
	if !ok {
		return c.row.content
	}

	lo := c.row.position - expand
	if lo < 0 {
		lo = 0
	}
	hi := c.row.position + expand
	if hi > len(rec.chunks)-1 {
		hi = len(rec.chunks) - 1
	}

	parts := make([]string, 0, hi-lo+1)
	for _, row := range rec.chunks[lo : hi+1] {
		parts = append(parts, row.content)
	}
	return strings.Join(parts, "\n")
}

// startPage returns the hit's start page for file documents.
func (s *Store) startPage(c scored) *int {
	rec, ok := s.docs[c.sourceID]
	if !ok || rec.summary.Kind != "file" {
		return nil
	}
	page := c.row.startPage
	return &page
}

// Summary returns the tracked summary for a document.
func (s *Store) Summary(_ context.Context, sourceID string) (*domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	summary := rec.summary
	return &summary, nil
}

// ListSummaries returns summaries for all tracked documents.
func (s *Store) ListSummaries(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.DocumentSummary, 0, len(s.docs))
	for _, rec := range s.docs {
		summaries = append(summaries, rec.summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SourceID < summaries[j].SourceID
	})
	return summaries, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// chunkStep returns the offset distance between consecutive chunks,
// mirroring the normalization chunk.Split applies.
func chunkStep(cfg domain.IngestConfig) int {
	size := cfg.ChunkSize
	if size <= 0 {
		size = domain.DefaultIngestConfig().ChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return size - overlap
}

// excerpt returns a short display snippet of content.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= excerptLen {
		return content
	}
	return content[:excerptLen] + "..."
}

// dot returns the inner product of two vectors. Both sides are
// L2-normalized by the embedding engine, so this is cosine similarity.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
