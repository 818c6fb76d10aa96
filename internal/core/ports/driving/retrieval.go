package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ErrorState is the orchestrator's coarse failure indicator.
// It records only which kind of operation failed most recently and is
// advisory: callers must inspect the error of each call, never this
// field alone.
type ErrorState string

const (
	// ErrorStateNone means no failure has been recorded.
	ErrorStateNone ErrorState = "none"

	// ErrorStateIngest means the most recent failure was an ingestion.
	ErrorStateIngest ErrorState = "ingestError"

	// ErrorStateSearch means the most recent failure was a search.
	ErrorStateSearch ErrorState = "searchError"
)

// RetrievalService canonicalizes heterogeneous inputs into
// content-addressed documents and dispatches queries across retrieval
// modes.
type RetrievalService interface {
	// ImportFile ingests the file at path under a content-addressed id.
	// Re-importing byte-identical content yields the identical id;
	// duplicate detection is not this layer's responsibility.
	ImportFile(ctx context.Context, path string) (pages, chunks int, err error)

	// ImportFreeText ingests free text under a content-addressed id.
	// If name is empty one is derived from the content hash.
	ImportFreeText(ctx context.Context, text, name string) (chars, chunks int, err error)

	// ImportEmailBatch renders messages canonically and ingests them as
	// one document under the caller-supplied sourceID. An empty batch
	// returns (0,0) without touching the pipeline.
	ImportEmailBatch(ctx context.Context, messages []domain.EmailMessage, sourceID, name string) (items, chunks int, err error)

	// ImportScheduleBatch is ImportEmailBatch for calendar events.
	ImportScheduleBatch(ctx context.Context, events []domain.CalendarEvent, sourceID, name string) (items, chunks int, err error)

	// Search dispatches query across the index store's retrieval
	// primitives according to mode, clamping parameters first.
	// A blank query returns an empty result list without error.
	Search(ctx context.Context, query, sourceFilter string, topK int, mode domain.SearchMode) ([]domain.RetrievedResult, error)

	// ErrorState returns the coarse last-failure indicator.
	ErrorState() ErrorState

	// Summaries returns tracked document summaries for status display.
	Summaries(ctx context.Context) ([]domain.DocumentSummary, error)
}
