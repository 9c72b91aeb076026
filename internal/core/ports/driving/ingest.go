package driving

import (
	"context"
	"io"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// IngestService drives the document write path: upload, the
// load-chunk-embed-index pipeline, retry, and cascade delete.
type IngestService interface {
	// Upload stores the bytes, detects the format, and creates the
	// document record with status uploaded. Unsupported formats fail
	// here with a typed error, not at query time.
	Upload(ctx context.Context, owner, filename string, r io.Reader) (*domain.Document, error)

	// Ingest runs the full pipeline for an uploaded document:
	// load, chunk, embed, index. On success the document is indexed;
	// on any stage error it is failed with partial writes cleaned up.
	Ingest(ctx context.Context, documentID string) error

	// Retry re-runs ingestion for a failed (or indexed) document.
	Retry(ctx context.Context, documentID string) error

	// Delete removes the document and everything derived from it:
	// vectors first, then chunks, then the stored bytes, and the
	// metadata record last.
	Delete(ctx context.Context, documentID string) error
}
