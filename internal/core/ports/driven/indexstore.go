package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// IndexStore owns document storage, the full-text index and the vector
// index. It performs chunking, embedding and score fusion; the
// orchestrator only canonicalizes inputs and dispatches queries.
type IndexStore interface {
	// Ingest chunks, embeds and indexes content as one document under
	// sourceID. It returns the number of source units (characters for
	// free text, batch items for rendered batches as reported by the
	// caller) and the number of chunks written.
	Ingest(ctx context.Context, content, sourceID, name string, cfg domain.IngestConfig) (units, chunks int, err error)

	// IngestFile extracts, chunks, embeds and indexes the file at path
	// under sourceID. It returns page and chunk counts.
	IngestFile(ctx context.Context, path, sourceID string, cfg domain.IngestConfig) (pages, chunks int, err error)

	// SearchFused runs hybrid retrieval, blending BM25 and cosine
	// relevance by bm25Weight and expanding each hit with up to expand
	// neighbouring chunks.
	SearchFused(ctx context.Context, query, sourceFilter string, limit, expand int, bm25Weight float64) ([]domain.RetrievedResult, error)

	// SearchContextual runs lexical retrieval, expanding each hit with
	// up to expand neighbouring chunks.
	SearchContextual(ctx context.Context, query, sourceFilter string, limit, expand int) ([]domain.RetrievedResult, error)

	// Summary returns the tracked summary for a document.
	Summary(ctx context.Context, sourceID string) (*domain.DocumentSummary, error)

	// ListSummaries returns summaries for all tracked documents.
	ListSummaries(ctx context.Context) ([]domain.DocumentSummary, error)

	// Close releases resources.
	Close() error
}
