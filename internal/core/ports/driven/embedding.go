package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - Local ONNX models (all-MiniLM, nomic-embed-text)
//   - Remote inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// The returned vector is L2-normalized and owned by the caller.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input
	// order. Implementations are free to process items sequentially.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
