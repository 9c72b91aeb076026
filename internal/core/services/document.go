package services

import (
	"context"
	"fmt"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes document, chunk, and history lookups to
// inbound adapters.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns the documents owned by owner, newest first.
func (s *DocumentService) List(ctx context.Context, owner string) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Chunks returns a document's chunks ordered by index.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	chunks, err := s.docStore.ListChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return chunks, nil
}

// Chunk returns one chunk of a document.
func (s *DocumentService) Chunk(ctx context.Context, documentID, chunkID string) (*domain.Chunk, error) {
	chunk, err := s.docStore.GetChunk(ctx, documentID, chunkID)
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	return chunk, nil
}

// History returns the owner's most recent query records.
func (s *DocumentService) History(ctx context.Context, owner string, limit int) ([]domain.QueryRecord, error) {
	records, err := s.docStore.ListQueryHistory(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list query history: %w", err)
	}
	return records, nil
}
