package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - A deterministic hash embedder (default, no network)
//   - Ollama (nomic-embed-text, all-minilm)
//
// Implementations must be deterministic for identical input.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
