package driving

import (
	"context"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// DocumentService exposes document and chunk lookups to inbound
// adapters.
type DocumentService interface {
	// List returns the documents owned by owner.
	List(ctx context.Context, owner string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns a document's chunks ordered by index.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Chunk returns one chunk of a document.
	Chunk(ctx context.Context, documentID, chunkID string) (*domain.Chunk, error)

	// History returns the owner's most recent query records.
	History(ctx context.Context, owner string, limit int) ([]domain.QueryRecord, error)
}
