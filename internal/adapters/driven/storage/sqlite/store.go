// Package sqlite provides a SQLite-backed index store. Documents and
// chunks live in ordinary tables, keyword relevance comes from an
// FTS5 index via bm25(), and embeddings are stored as little-endian
// float32 blobs alongside each chunk.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall/internal/chunk"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// excerptLen caps the display snippet length.
const excerptLen = 160

// Store is a SQLite-backed index store.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore creates a SQLite index store at the specified data
// directory. If dataDir is empty, defaults to ~/.recall/data/index.db.
// The embedder is optional; when nil, cosine scores are zero and
// retrieval is lexical only.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
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

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency between ingest and search
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		embedder: embedder,
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
			return fmt.Errorf("applying migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}

		logger.Debug("Applied migration %s", name)
	}

	return nil
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
// replace any previous chunks, advancing the document status machine
// as each stage completes.
func (s *Store) ingest(ctx context.Context, content, sourceID, name, kind string, pages int, cfg domain.IngestConfig) (int, int, error) {
	if err := s.openSummary(ctx, sourceID, name, kind); err != nil {
		return 0, 0, err
	}

	s.setStatus(ctx, sourceID, domain.StatusQueued, "")
	s.setStatus(ctx, sourceID, domain.StatusExtracting, "")
	s.setStatus(ctx, sourceID, domain.StatusChunking, "")

	pieces := chunk.Split(content, cfg)

	var embeddings [][]float32
	if s.embedder != nil {
		var err error
		embeddings, err = s.embedder.EmbedBatch(ctx, pieces)
		if err != nil {
			s.setStatus(ctx, sourceID, domain.StatusFailed, err.Error())
			return 0, 0, fmt.Errorf("embed chunks: %w", err)
		}
	}

	s.setStatus(ctx, sourceID, domain.StatusWriting, "")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.setStatus(ctx, sourceID, domain.StatusFailed, err.Error())
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Re-ingestion replaces the previous chunk set wholesale.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id IN (SELECT id FROM chunks WHERE source_id = ?)", sourceID); err != nil {
		return 0, 0, fmt.Errorf("clearing fts rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source_id = ?", sourceID); err != nil {
		return 0, 0, fmt.Errorf("clearing chunks: %w", err)
	}

	step := chunkStep(cfg)
	for i, piece := range pieces {
		id := uuid.New().String()

		startPage := 0
		if kind == "file" {
			offset := i * step
			if offset > len(content) {
				offset = len(content)
			}
			startPage = strings.Count(content[:offset], "\f") + 1
		}

		var blob []byte
		if embeddings != nil {
			blob = embeddingToBlob(embeddings[i])
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, source_id, position, start_page, content, embedding) VALUES (?, ?, ?, ?, ?, ?)",
			id, sourceID, i, startPage, piece, blob); err != nil {
			return 0, 0, fmt.Errorf("inserting chunk %d: %w", i, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks_fts (chunk_id, content) VALUES (?, ?)", id, piece); err != nil {
			return 0, 0, fmt.Errorf("indexing chunk %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET size_bytes = ?, page_count = ?, chunk_count = ?, updated_at = ? WHERE source_id = ?",
		len(content), pages, len(pieces), time.Now().UTC(), sourceID); err != nil {
		return 0, 0, fmt.Errorf("updating summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.setStatus(ctx, sourceID, domain.StatusFailed, err.Error())
		return 0, 0, fmt.Errorf("commit: %w", err)
	}

	s.setStatus(ctx, sourceID, domain.StatusCompleted, "")
	logger.Debug("Indexed %s: %d chunks", sourceID, len(pieces))

	return len(content), len(pieces), nil
}

// openSummary creates the tracked summary on first reference and
// bumps the version and resets the status machine otherwise.
func (s *Store) openSummary(ctx context.Context, sourceID, name, kind string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (source_id, title, kind, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			title = excluded.title,
			version = version + 1,
			status = ?,
			failure_reason = '',
			updated_at = excluded.updated_at
	`, sourceID, name, kind, domain.StatusIdle, now, now, domain.StatusIdle)
	if err != nil {
		return fmt.Errorf("tracking document: %w", err)
	}
	return nil
}

// setStatus advances the document status when the machine permits the
// transition. Illegal transitions are skipped, not errors: the status
// column is a surfaced progress indicator, not a correctness gate.
func (s *Store) setStatus(ctx context.Context, sourceID string, next domain.DocumentStatus, reason string) {
	var current string
	row := s.db.QueryRowContext(ctx, "SELECT status FROM documents WHERE source_id = ?", sourceID)
	if err := row.Scan(&current); err != nil {
		logger.Warn("Reading status for %s: %v", sourceID, err)
		return
	}

	if !domain.DocumentStatus(current).CanTransition(next) {
		logger.Debug("Skipping illegal status transition %s -> %s for %s", current, next, sourceID)
		return
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, failure_reason = ?, updated_at = ? WHERE source_id = ?",
		next, reason, time.Now().UTC(), sourceID); err != nil {
		logger.Warn("Updating status for %s: %v", sourceID, err)
	}
}

// ftsHit is a raw keyword hit before hydration.
type ftsHit struct {
	chunkID string
	score   float64
}

// SearchContextual runs lexical retrieval with context expansion.
func (s *Store) SearchContextual(ctx context.Context, query, sourceFilter string, limit, expand int) ([]domain.RetrievedResult, error) {
	hits, err := s.keywordHits(ctx, query, sourceFilter, limit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedResult, 0, len(hits))
	for _, hit := range hits {
		r, err := s.hydrate(ctx, hit.chunkID, expand)
		if err != nil {
			return nil, err
		}
		r.BM25Score = hit.score
		r.FusedScore = hit.score
		results = append(results, *r)
	}
	return results, nil
}

// SearchFused runs hybrid retrieval. Lexical candidates come from
// FTS5; every embedded chunk is additionally scored by cosine
// similarity and the two are blended by bm25Weight after min-max
// normalizing the BM25 side.
func (s *Store) SearchFused(ctx context.Context, query, sourceFilter string, limit, expand int, bm25Weight float64) ([]domain.RetrievedResult, error) {
	// Over-fetch lexical hits so fusion has candidates to reorder.
	hits, err := s.keywordHits(ctx, query, sourceFilter, limit*4)
	if err != nil {
		return nil, err
	}

	bm25 := make(map[string]float64, len(hits))
	var maxBM25 float64
	for _, hit := range hits {
		bm25[hit.chunkID] = hit.score
		if hit.score > maxBM25 {
			maxBM25 = hit.score
		}
	}

	cosine := make(map[string]float64)
	if s.embedder != nil && bm25Weight < 1 {
		queryVec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		cosine, err = s.cosineScores(ctx, queryVec, sourceFilter)
		if err != nil {
			return nil, err
		}
	}

	// Union of lexical and vector candidates.
	fused := make(map[string]float64, len(bm25)+len(cosine))
	for id, score := range bm25 {
		norm := 0.0
		if maxBM25 > 0 {
			norm = score / maxBM25
		}
		fused[id] = bm25Weight * norm
	}
	for id, score := range cosine {
		fused[id] += (1 - bm25Weight) * score
	}

	ids := make([]string, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return fused[ids[i]] > fused[ids[j]]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	results := make([]domain.RetrievedResult, 0, len(ids))
	for _, id := range ids {
		r, err := s.hydrate(ctx, id, expand)
		if err != nil {
			return nil, err
		}
		r.BM25Score = bm25[id]
		r.FusedScore = fused[id]
		if score, ok := cosine[id]; ok {
			c := score
			r.CosineScore = &c
		}
		results = append(results, *r)
	}
	return results, nil
}

// keywordHits queries the FTS5 index. Scores are negated bm25() so
// larger means more relevant.
func (s *Store) keywordHits(ctx context.Context, query, sourceFilter string, limit int) ([]ftsHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	q := `
		SELECT f.chunk_id, -bm25(chunks_fts) AS score
		FROM chunks_fts f
		JOIN chunks c ON c.id = f.chunk_id
		WHERE chunks_fts MATCH ?`
	args := []any{match}
	if sourceFilter != "" {
		q += " AND c.source_id = ?"
		args = append(args, sourceFilter)
	}
	q += " ORDER BY score DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var hits []ftsHit
	for rows.Next() {
		var hit ftsHit
		if err := rows.Scan(&hit.chunkID, &hit.score); err != nil {
			return nil, fmt.Errorf("scanning fts hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// cosineScores scans embedded chunks and scores them against queryVec.
// The corpus is local and bounded, so a linear scan is acceptable.
func (s *Store) cosineScores(ctx context.Context, queryVec []float32, sourceFilter string) (map[string]float64, error) {
	q := "SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL"
	args := []any{}
	if sourceFilter != "" {
		q += " AND source_id = ?"
		args = append(args, sourceFilter)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		scores[id] = dot(queryVec, blobToEmbedding(blob))
	}
	return scores, rows.Err()
}

// hydrate loads a chunk with up to expand neighbouring chunks on each
// side and builds a result.
func (s *Store) hydrate(ctx context.Context, chunkID string, expand int) (*domain.RetrievedResult, error) {
	var sourceID, content, kind string
	var position, startPage int
	row := s.db.QueryRowContext(ctx, `
		SELECT c.source_id, c.content, c.position, c.start_page, d.kind
		FROM chunks c JOIN documents d ON d.source_id = c.source_id
		WHERE c.id = ?`, chunkID)
	if err := row.Scan(&sourceID, &content, &position, &startPage, &kind); err != nil {
		return nil, fmt.Errorf("loading chunk %s: %w", chunkID, err)
	}

	text := content
	if expand > 0 {
		rows, err := s.db.QueryContext(ctx, `
			SELECT content FROM chunks
			WHERE source_id = ? AND position BETWEEN ? AND ?
			ORDER BY position`, sourceID, position-expand, position+expand)
		if err != nil {
			return nil, fmt.Errorf("expanding chunk %s: %w", chunkID, err)
		}
		defer rows.Close()

		var parts []string
		for rows.Next() {
			var part string
			if err := rows.Scan(&part); err != nil {
				return nil, fmt.Errorf("scanning context: %w", err)
			}
			parts = append(parts, part)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		text = strings.Join(parts, "\n")
	}

	result := &domain.RetrievedResult{
		SourceID: sourceID,
		Excerpt:  excerpt(content),
		Text:     text,
	}
	if kind == "file" {
		page := startPage
		result.StartPage = &page
	}
	return result, nil
}

// Summary returns the tracked summary for a document.
func (s *Store) Summary(ctx context.Context, sourceID string) (*domain.DocumentSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_id, title, kind, size_bytes, page_count, chunk_count,
		       tags, version, status, failure_reason, created_at, updated_at
		FROM documents WHERE source_id = ?`, sourceID)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading summary %s: %w", sourceID, err)
	}
	return summary, nil
}

// ListSummaries returns summaries for all tracked documents.
func (s *Store) ListSummaries(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, title, kind, size_bytes, page_count, chunk_count,
		       tags, version, status, failure_reason, created_at, updated_at
		FROM documents ORDER BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, *summary)
	}
	return summaries, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*domain.DocumentSummary, error) {
	var summary domain.DocumentSummary
	var tagsJSON, status string
	err := row.Scan(&summary.SourceID, &summary.Title, &summary.Kind,
		&summary.SizeBytes, &summary.PageCount, &summary.ChunkCount,
		&tagsJSON, &summary.Version, &status, &summary.FailureReason,
		&summary.CreatedAt, &summary.UpdatedAt)
	if err != nil {
		return nil, err
	}

	summary.Status = domain.DocumentStatus(status)
	if err := json.Unmarshal([]byte(tagsJSON), &summary.Tags); err != nil {
		summary.Tags = nil
	}
	return &summary, nil
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

// ftsQuery quotes each query term so user input cannot inject FTS5
// operators.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// excerpt returns a short display snippet of content.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= excerptLen {
		return content
	}
	return content[:excerptLen] + "..."
}

// embeddingToBlob encodes a vector as little-endian float32 bytes.
func embeddingToBlob(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToEmbedding decodes little-endian float32 bytes into a vector.
func blobToEmbedding(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
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
