package driving

import (
	"context"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// QueryService drives the read path: retrieve, rerank, synthesize.
type QueryService interface {
	// Answer retrieves chunks relevant to the request, optionally
	// reranks them, and synthesizes a grounded answer whose sources
	// are exactly the chunks placed in the generation context.
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)

	// Retrieve runs retrieval (and reranking, if requested) without
	// answer generation. Useful for inspection and evaluation.
	Retrieve(ctx context.Context, req domain.QueryRequest) ([]domain.RetrievalResult, error)
}
