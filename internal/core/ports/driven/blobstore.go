package driven

import (
	"context"
	"io"
)

// BlobStore stores and retrieves original uploaded bytes by an opaque
// handle. The core only needs byte streams in and out.
type BlobStore interface {
	// Put stores the stream under the handle, replacing any previous
	// content.
	Put(ctx context.Context, handle string, r io.Reader) (int64, error)

	// Get returns a reader for the stored bytes. The caller closes it.
	Get(ctx context.Context, handle string) (io.ReadCloser, error)

	// Delete removes the stored bytes. Deleting a missing handle is
	// not an error.
	Delete(ctx context.Context, handle string) error
}
