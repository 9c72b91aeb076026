package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/veridoc-labs/veridoc/internal/chunking"
	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driving"
	"github.com/veridoc-labs/veridoc/internal/loaders"
	"github.com/veridoc-labs/veridoc/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService drives the write path: upload, the
// load-chunk-embed-index pipeline, retry, and cascade delete.
type IngestService struct {
	docStore         driven.DocumentStore
	blobStore        driven.BlobStore
	registry         *loaders.Registry
	chunker          *chunking.Chunker
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	lifecycle        lifecycle
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	registry *loaders.Registry,
	chunker *chunking.Chunker,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
) *IngestService {
	return &IngestService{
		docStore:         docStore,
		blobStore:        blobStore,
		registry:         registry,
		chunker:          chunker,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		lifecycle:        lifecycle{docStore: docStore},
	}
}

// Upload stores the bytes, detects the format from the filename, and
// creates the document record with status uploaded. Unsupported
// formats are rejected here so they never occupy blob space.
func (s *IngestService) Upload(ctx context.Context, owner, filename string, r io.Reader) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: empty owner", domain.ErrInvalidInput)
	}

	format, err := s.registry.Detect(filename)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:       uuid.NewString(),
		Owner:    owner,
		Filename: filepath.Base(filename),
		Format:   format,
		Status:   domain.StatusUploaded,
	}

	logger.Debug("Upload: %s (%s) as document %s", doc.Filename, format, doc.ID)

	size, err := s.blobStore.Put(ctx, doc.BlobHandle(), r)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	doc.SizeBytes = size

	if err := s.docStore.CreateDocument(ctx, doc); err != nil {
		// The record is the source of truth; without it the blob is
		// unreachable, so remove it again.
		if delErr := s.blobStore.Delete(ctx, doc.BlobHandle()); delErr != nil {
			logger.Warn("Upload: orphaned blob %s: %v", doc.BlobHandle(), delErr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	logger.Info("Uploaded %s (%d bytes) as document %s", doc.Filename, size, doc.ID)
	return doc, nil
}

// Ingest runs the full pipeline for a document: load, chunk, embed,
// index. On success the document ends up indexed; on any stage error
// it ends up failed with partial writes removed.
func (s *IngestService) Ingest(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := s.lifecycle.transition(ctx, doc, domain.StatusProcessing); err != nil {
		return err
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting document %s (%s)", doc.ID, doc.Filename)

	if err := s.runPipeline(ctx, doc); err != nil {
		s.cleanupPartial(ctx, doc.ID)
		if ferr := s.lifecycle.transition(ctx, doc, domain.StatusFailed); ferr != nil {
			logger.Warn("Ingest: could not mark document %s failed: %v", doc.ID, ferr)
		}
		return fmt.Errorf("ingest document %s: %w", doc.ID, err)
	}

	if err := s.lifecycle.transition(ctx, doc, domain.StatusIndexed); err != nil {
		return err
	}

	logger.Info("Document %s indexed", doc.ID)
	return nil
}

// Retry re-runs ingestion. The lifecycle machine permits it from
// failed and from indexed (re-ingestion); anything else conflicts.
func (s *IngestService) Retry(ctx context.Context, documentID string) error {
	return s.Ingest(ctx, documentID)
}

// Delete removes the document and everything derived from it. Order
// matters: vectors first so stale hits disappear immediately, then
// chunks, then the stored bytes, and the metadata record last.
func (s *IngestService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := s.vectorIndex.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.docStore.DeleteChunks(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.blobStore.Delete(ctx, doc.BlobHandle()); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Deleted document %s and all derived data", doc.ID)
	return nil
}

// runPipeline executes load, chunk, embed, and index for one document.
func (s *IngestService) runPipeline(ctx context.Context, doc *domain.Document) error {
	loader, err := s.registry.ForFormat(doc.Format)
	if err != nil {
		return err
	}

	blob, err := s.blobStore.Get(ctx, doc.BlobHandle())
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}
	defer blob.Close()

	pages, err := loader.Load(ctx, blob)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	logger.Debug("Loaded %d pages", len(pages))

	chunks, err := s.chunker.Chunk(doc.ID, pages)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	// Drop derived data from any earlier run before writing the new
	// set. Chunk IDs are deterministic, so without this a shrinking
	// document would leave stale trailing chunks behind.
	if err := s.vectorIndex.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear old vectors: %w", err)
	}
	if err := s.docStore.DeleteChunks(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}

	if len(chunks) == 0 {
		logger.Warn("Document %s produced no chunks", doc.ID)
	} else {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}

		embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingService, len(embeddings), len(chunks))
		}

		records := make([]driven.VectorRecord, len(chunks))
		for i, chunk := range chunks {
			records[i] = driven.VectorRecord{
				ChunkID:    chunk.ID,
				DocumentID: chunk.DocumentID,
				Owner:      doc.Owner,
				Page:       chunk.Page,
				Embedding:  embeddings[i],
			}
		}
		if err := s.vectorIndex.UpsertBatch(ctx, records); err != nil {
			return fmt.Errorf("index vectors: %w", err)
		}

		if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}
	}

	// Counts are recorded only once the derived data is fully written;
	// a run that fails and cleans up must not advertise chunks that no
	// longer exist.
	metadata := map[string]any{
		"pages":  len(pages),
		"chunks": len(chunks),
	}
	if err := s.docStore.UpdateMetadata(ctx, doc.ID, metadata); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}

	return nil
}

// cleanupPartial removes whatever a failed pipeline run may have
// written. Errors are logged, not returned: the run already failed and
// the document is about to be marked so.
func (s *IngestService) cleanupPartial(ctx context.Context, documentID string) {
	if err := s.vectorIndex.DeleteByDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Cleanup: vectors for %s: %v", documentID, err)
	}
	if err := s.docStore.DeleteChunks(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Cleanup: chunks for %s: %v", documentID, err)
	}
}
