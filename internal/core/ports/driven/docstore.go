package driven

import (
	"context"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// DocumentStore is the persistent metadata store: the durable record of
// documents, their lifecycle state, their chunks, and the query history
// log. Backed by SQLite.
type DocumentStore interface {
	// CreateDocument stores a new document record.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// UpdateStatus persists a lifecycle status change. Only the
	// lifecycle tracker calls this.
	UpdateStatus(ctx context.Context, id string, status domain.Status) error

	// UpdateMetadata replaces a document's metadata map.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents for an owner.
	ListDocuments(ctx context.Context, owner string) ([]domain.Document, error)

	// DeleteDocument removes a document record. Chunks must already be
	// gone: the record is deleted last so a crash mid-delete leaves
	// evidence of incomplete cleanup, never orphaned chunks without it.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks stores the chunk set for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListChunks retrieves all chunks for a document, ordered by index.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves one chunk of a document.
	GetChunk(ctx context.Context, documentID, chunkID string) (*domain.Chunk, error)

	// DeleteChunks removes all chunks for a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// SaveQueryRecord appends an entry to the query history log.
	SaveQueryRecord(ctx context.Context, rec *domain.QueryRecord) error

	// ListQueryHistory returns the most recent queries for an owner.
	ListQueryHistory(ctx context.Context, owner string, limit int) ([]domain.QueryRecord, error)
}
