package domain

// SearchModeKind identifies a retrieval strategy.
type SearchModeKind string

const (
	// ModeSemantic retrieves by vector similarity only.
	ModeSemantic SearchModeKind = "semantic"

	// ModeKeyword retrieves by lexical (BM25) relevance only.
	ModeKeyword SearchModeKind = "keyword"

	// ModeWithContext retrieves lexically and expands each hit with
	// neighbouring chunks of context.
	ModeWithContext SearchModeKind = "withContext"

	// ModeHybrid fuses lexical and vector relevance into one ranking.
	ModeHybrid SearchModeKind = "hybrid"
)

// SearchMode is a tagged search-strategy variant. Construct with the
// factory functions; the orchestrator validates and clamps parameters
// before dispatch.
type SearchMode struct {
	// Kind selects the retrieval strategy.
	Kind SearchModeKind

	// Expand is the number of neighbouring chunks appended as context.
	// Used by withContext and hybrid.
	Expand int

	// BM25Weight is the lexical share of the fused score, in [0,1].
	// Used by hybrid.
	BM25Weight float64
}

// Semantic returns the vector-only search mode.
func Semantic() SearchMode {
	return SearchMode{Kind: ModeSemantic}
}

// Keyword returns the lexical-only search mode.
func Keyword() SearchMode {
	return SearchMode{Kind: ModeKeyword}
}

// WithContext returns the lexical search mode with expand chunks of
// surrounding context per hit.
func WithContext(expand int) SearchMode {
	return SearchMode{Kind: ModeWithContext, Expand: expand}
}

// Hybrid returns the fused search mode.
func Hybrid(expand int, bm25Weight float64) SearchMode {
	return SearchMode{Kind: ModeHybrid, Expand: expand, BM25Weight: bm25Weight}
}

// RetrievedResult is a single ranked hit produced by the index store.
// Results are read-only to the core.
type RetrievedResult struct {
	// SourceID identifies the document the hit belongs to.
	SourceID string

	// StartPage is the page the chunk starts on, where known.
	StartPage *int

	// Excerpt is a short display snippet of the matched chunk.
	Excerpt string

	// Text is the full chunk text, including any expanded context.
	Text string

	// BM25Score is the lexical relevance score.
	BM25Score float64

	// CosineScore is the vector similarity score, where computed.
	CosineScore *float64

	// FusedScore is the final ranking score.
	FusedScore float64
}

// IngestConfig controls how the index store chunks and embeds content.
type IngestConfig struct {
	// ChunkSize is the chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int
}

// DefaultIngestConfig returns the default chunking configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}
