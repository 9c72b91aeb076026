package driven

import (
	"context"
	"io"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// Loader decodes raw bytes of one or more supported formats into an
// ordered sequence of page records with layout metadata. Paginated
// formats emit one record per page; flat formats emit a single
// pseudo-page numbered 1 with no bounding boxes.
//
// Loaders are pure transformations: they never write to storage.
type Loader interface {
	// Formats returns the format tags this loader handles
	// (e.g. "pdf", "docx", "txt").
	Formats() []string

	// Load parses the stream and returns its pages in order.
	// Returns domain.ErrCorruptInput (wrapped) when the bytes cannot
	// be parsed as the declared format.
	Load(ctx context.Context, r io.Reader) ([]domain.Page, error)
}
