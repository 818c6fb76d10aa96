package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/recall/internal/canonical"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultMaxResults is the default ceiling for topK.
const DefaultMaxResults = 50

// freeTextPrefix distinguishes free-text ids from file ids.
const freeTextPrefix = "text:"

// RetrievalService canonicalizes inputs into content-addressed
// documents and dispatches search queries across the index store's
// retrieval primitives.
type RetrievalService struct {
	index      driven.IndexStore
	cfg        domain.IngestConfig
	maxResults int

	// errState is the coarse last-failure indicator. It is written
	// without locking: concurrent failures may race to overwrite it,
	// which is acceptable because the field is diagnostic and never
	// drives correctness decisions.
	errState driving.ErrorState
}

// Option configures the retrieval service.
type Option func(*RetrievalService)

// WithIngestConfig sets the chunking configuration.
func WithIngestConfig(cfg domain.IngestConfig) Option {
	return func(s *RetrievalService) {
		s.cfg = cfg
	}
}

// WithMaxResults sets the topK ceiling.
func WithMaxResults(maxResults int) Option {
	return func(s *RetrievalService) {
		if maxResults > 0 {
			s.maxResults = maxResults
		}
	}
}

// NewRetrievalService creates a retrieval service backed by index.
func NewRetrievalService(index driven.IndexStore, opts ...Option) *RetrievalService {
	s := &RetrievalService{
		index:      index,
		cfg:        domain.DefaultIngestConfig(),
		maxResults: DefaultMaxResults,
		errState:   driving.ErrorStateNone,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ImportFile ingests the file at path under a content-addressed id.
// The id is the hex SHA-256 of the file bytes, so re-importing
// byte-identical content always yields the same id. Detecting and
// skipping duplicates is the index store's concern, not this layer's.
func (s *RetrievalService) ImportFile(ctx context.Context, path string) (int, int, error) {
	logger.Section("Import File")
	logger.Debug("Path: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		s.errState = driving.ErrorStateIngest
		return 0, 0, fmt.Errorf("%w: read %s: %w", domain.ErrIngest, path, err)
	}

	sum := sha256.Sum256(data)
	sourceID := hex.EncodeToString(sum[:])
	logger.Debug("Source ID: %s", sourceID)

	pages, chunks, err := s.index.IngestFile(ctx, path, sourceID, s.cfg)
	if err != nil {
		s.errState = driving.ErrorStateIngest
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrIngest, err)
	}

	logger.Info("Imported %s: %d pages, %d chunks", path, pages, chunks)
	return pages, chunks, nil
}

// ImportFreeText ingests free text under a content-addressed id with
// a "text:" prefix. If name is empty, one is derived from the first
// 8 hex characters of the content hash.
func (s *RetrievalService) ImportFreeText(ctx context.Context, text, name string) (int, int, error) {
	logger.Section("Import Free Text")

	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])
	sourceID := freeTextPrefix + digest
	if name == "" {
		name = "note-" + digest[:8]
	}
	logger.Debug("Source ID: %s, name: %s", sourceID, name)

	_, chunks, err := s.index.Ingest(ctx, text, sourceID, name, s.cfg)
	if err != nil {
		s.errState = driving.ErrorStateIngest
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrIngest, err)
	}

	logger.Info("Imported %q: %d chars, %d chunks", name, len(text), chunks)
	return len(text), chunks, nil
}

// ImportEmailBatch renders each message canonically, joins the blocks
// and ingests them as one document under the caller-supplied sourceID.
// Idempotency and versioning at this granularity belong to the caller.
func (s *RetrievalService) ImportEmailBatch(
	ctx context.Context, messages []domain.EmailMessage, sourceID, name string,
) (int, int, error) {
	logger.Section("Import Email Batch")

	// An empty batch never reaches the pipeline.
	if len(messages) == 0 {
		logger.Debug("Empty batch, nothing to ingest")
		return 0, 0, nil
	}

	content := canonical.EmailBatch(messages)
	if name == "" {
		name = sourceID
	}

	_, chunks, err := s.index.Ingest(ctx, content, sourceID, name, s.cfg)
	if err != nil {
		s.errState = driving.ErrorStateIngest
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrIngest, err)
	}

	logger.Info("Imported %d messages under %s: %d chunks", len(messages), sourceID, chunks)
	return len(messages), chunks, nil
}

// ImportScheduleBatch is ImportEmailBatch for calendar events.
func (s *RetrievalService) ImportScheduleBatch(
	ctx context.Context, events []domain.CalendarEvent, sourceID, name string,
) (int, int, error) {
	logger.Section("Import Schedule Batch")

	if len(events) == 0 {
		logger.Debug("Empty batch, nothing to ingest")
		return 0, 0, nil
	}

	content := canonical.EventBatch(events)
	if name == "" {
		name = sourceID
	}

	_, chunks, err := s.index.Ingest(ctx, content, sourceID, name, s.cfg)
	if err != nil {
		s.errState = driving.ErrorStateIngest
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrIngest, err)
	}

	logger.Info("Imported %d events under %s: %d chunks", len(events), sourceID, chunks)
	return len(events), chunks, nil
}

// Search sanitizes parameters and dispatches the query to one of the
// index store's retrieval primitives according to mode.
func (s *RetrievalService) Search(
	ctx context.Context, query, sourceFilter string, topK int, mode domain.SearchMode,
) ([]domain.RetrievedResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q, mode: %s", query, mode.Kind)

	// A blank query is not an error: return empty without touching
	// the index store.
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Blank query, returning no results")
		return []domain.RetrievedResult{}, nil
	}

	limit := clampInt(topK, 1, s.maxResults)
	logger.Debug("Limit: %d (requested %d)", limit, topK)

	var results []domain.RetrievedResult
	var err error

	switch mode.Kind {
	case domain.ModeSemantic:
		// Cosine-only retrieval is the degenerate fused case with no
		// lexical share.
		results, err = s.index.SearchFused(ctx, query, sourceFilter, limit, 1, 0)

	case domain.ModeKeyword:
		// Lexical-only retrieval is the degenerate contextual case
		// with no expansion.
		results, err = s.index.SearchContextual(ctx, query, sourceFilter, limit, 0)

	case domain.ModeWithContext:
		expand := clampMin(mode.Expand, 0)
		results, err = s.index.SearchContextual(ctx, query, sourceFilter, limit, expand)

	case domain.ModeHybrid:
		expand := clampMin(mode.Expand, 0)
		weight := clampFloat(mode.BM25Weight, 0, 1)
		results, err = s.index.SearchFused(ctx, query, sourceFilter, limit, expand, weight)

	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, mode.Kind)
	}

	if err != nil {
		s.errState = driving.ErrorStateSearch
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}

	logger.Info("Results: %d", len(results))
	return results, nil
}

// ErrorState returns the coarse last-failure indicator.
func (s *RetrievalService) ErrorState() driving.ErrorState {
	return s.errState
}

// Summaries returns tracked document summaries for status display.
func (s *RetrievalService) Summaries(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.index.ListSummaries(ctx)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampMin(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
