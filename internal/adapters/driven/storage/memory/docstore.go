// Package memory provides an in-memory metadata store used by tests
// and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Ensure DocStore implements the interface.
var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore stores documents, chunks, and query history in maps.
type DocStore struct {
	mu      sync.RWMutex
	docs    map[string]domain.Document
	chunks  map[string][]domain.Chunk // by document ID, ordered by index
	history []domain.QueryRecord
}

// NewDocStore creates an empty in-memory store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

// CreateDocument stores a new document record.
func (s *DocStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	s.docs[doc.ID] = *doc
	return nil
}

// UpdateStatus persists a lifecycle status change.
func (s *DocStore) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	s.docs[id] = doc
	return nil
}

// UpdateMetadata replaces a document's metadata map.
func (s *DocStore) UpdateMetadata(_ context.Context, id string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Metadata = metadata
	doc.UpdatedAt = time.Now().UTC()
	s.docs[id] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns documents for an owner, newest first.
func (s *DocStore) ListDocuments(_ context.Context, owner string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.docs {
		if doc.Owner == owner {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *DocStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// SaveChunks stores the chunk set for a document.
func (s *DocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		existing := s.chunks[chunk.DocumentID]
		replaced := false
		for i := range existing {
			if existing[i].ID == chunk.ID {
				existing[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, chunk)
		}
		sort.Slice(existing, func(i, j int) bool { return existing[i].Index < existing[j].Index })
		s.chunks[chunk.DocumentID] = existing
	}
	return nil
}

// ListChunks retrieves all chunks for a document, ordered by index.
func (s *DocStore) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetChunk retrieves one chunk of a document.
func (s *DocStore) GetChunk(_ context.Context, documentID, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, chunk := range s.chunks[documentID] {
		if chunk.ID == chunkID {
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteChunks removes all chunks for a document.
func (s *DocStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// SaveQueryRecord appends an entry to the query history log.
func (s *DocStore) SaveQueryRecord(_ context.Context, rec *domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.history = append(s.history, *rec)
	return nil
}

// ListQueryHistory returns the most recent queries for an owner,
// newest first.
func (s *DocStore) ListQueryHistory(_ context.Context, owner string, limit int) ([]domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	var records []domain.QueryRecord
	for _, rec := range s.history {
		if rec.Owner == owner {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
