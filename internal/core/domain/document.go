package domain

import "time"

// DocumentStatus describes how far a tracked document has progressed
// through the content pipeline. The pipeline drives transitions; the
// core only reads and surfaces the current state.
type DocumentStatus string

const (
	// StatusIdle is the sole initial state of a tracked document.
	StatusIdle DocumentStatus = "idle"

	// StatusQueued means the document is waiting for processing.
	StatusQueued DocumentStatus = "queued"

	// StatusExtracting means text is being extracted from the source.
	StatusExtracting DocumentStatus = "extracting"

	// StatusOCR means the document is in optical character recognition.
	// This stage is optional; extraction may go straight to chunking.
	StatusOCR DocumentStatus = "ocr"

	// StatusChunking means extracted text is being split into chunks.
	StatusChunking DocumentStatus = "chunking"

	// StatusWriting means chunks and embeddings are being persisted.
	StatusWriting DocumentStatus = "writing"

	// StatusCompleted means processing finished. Terminal.
	StatusCompleted DocumentStatus = "completed"

	// StatusFailed means processing failed. Terminal.
	StatusFailed DocumentStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// successors maps each status to the statuses it may advance to.
// Failed is additionally reachable from every non-terminal state.
var successors = map[DocumentStatus][]DocumentStatus{
	StatusIdle:       {StatusQueued},
	StatusQueued:     {StatusExtracting},
	StatusExtracting: {StatusOCR, StatusChunking},
	StatusOCR:        {StatusChunking},
	StatusChunking:   {StatusWriting},
	StatusWriting:    {StatusCompleted},
}

// CanTransition reports whether a document may move from s to next.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	for _, candidate := range successors[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// DocumentSummary describes a tracked document and its processing
// progress. Summaries are created on first ingestion reference and
// mutated by the content pipeline as processing advances; the core
// never deletes them.
type DocumentSummary struct {
	// SourceID is the content-addressed identifier of the document.
	SourceID string

	// Title is the human-readable name.
	Title string

	// Kind is the origin kind ("file", "text", "email", "schedule").
	Kind string

	// SizeBytes is the size of the canonical content.
	SizeBytes int64

	// PageCount is the number of pages, where the source has pages.
	PageCount int

	// ChunkCount is the number of indexed chunks.
	ChunkCount int

	// Tags are caller-supplied labels.
	Tags []string

	// Version increments each time the document is re-ingested.
	Version int

	// Status is the current pipeline state.
	Status DocumentStatus

	// FailureReason is set when Status is failed.
	FailureReason string

	// CreatedAt is when the document was first referenced.
	CreatedAt time.Time

	// UpdatedAt is when the summary last changed.
	UpdatedAt time.Time
}
