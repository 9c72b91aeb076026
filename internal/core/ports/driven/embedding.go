package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same service instance is used at ingestion time and at query
// time so similarity scores stay metrically comparable.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Outputs are
	// returned in input order and match the input length exactly;
	// implementations never reorder or drop entries.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to a run.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
