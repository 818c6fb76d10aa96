// Package chunk provides fixed-size text chunking shared by the index
// store implementations.
package chunk

import "github.com/custodia-labs/recall/internal/core/domain"

// Split divides content into fixed-size chunks with overlap according
// to cfg. Empty content produces no chunks.
func Split(content string, cfg domain.IngestConfig) []string {
	if content == "" {
		return nil
	}

	size := cfg.ChunkSize
	if size <= 0 {
		size = domain.DefaultIngestConfig().ChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	// Overlap must leave forward progress.
	if overlap >= size {
		overlap = size / 4
	}

	contentLen := len(content)
	chunks := make([]string, 0, contentLen/(size-overlap)+1)

	start := 0
	for start < contentLen {
		end := start + size
		if end > contentLen {
			end = contentLen
		}
		chunks = append(chunks, content[start:end])
		if end == contentLen {
			break
		}
		start += size - overlap
	}

	return chunks
}
