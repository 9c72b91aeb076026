package driven

import "context"

// RerankService re-scores candidate texts against a query with a
// relevance model distinct from embedding similarity (a cross-encoder
// style scorer). This is an optional service: when nil or unavailable
// the query path falls back to raw similarity ordering.
type RerankService interface {
	// Rerank returns one relevance score per text, in input order.
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName returns the name of the rerank model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
