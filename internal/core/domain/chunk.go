package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk is the atomic retrievable unit derived from a document.
// Chunks are never mutated after creation; re-ingestion replaces them.
type Chunk struct {
	// ID is derived deterministically from the document ID and chunk
	// index, so re-ingesting the same document is idempotent.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Page is the 1-based page the chunk starts on.
	// 0 for non-paginated formats.
	Page int

	// Index is the 0-based position within the document. Indices are
	// unique and densely increasing.
	Index int

	// Text is the chunk content. Never empty.
	Text string

	// BBox is the region of the page where the chunk's text appears,
	// in page coordinate space with a top-left origin. Nil when the
	// source format provided no layout information: nil means "no
	// highlight possible", never "empty region".
	BBox *BoundingBox

	// PageSpan lists every page the chunk covers, in order. A chunk
	// that merges across a page break spans two pages but keeps the
	// page of its first character in Page.
	PageSpan []int

	// Embedding is the vector representation, once computed.
	Embedding []float32
}

// ChunkID derives the stable identifier for a chunk from its document
// and position. It is a pure function of its inputs: insertion-time
// counters would break idempotent re-ingestion.
func ChunkID(documentID string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", documentID, index)))
	return hex.EncodeToString(sum[:])[:32]
}

// BoundingBox is a rectangle in page coordinate space (top-left origin).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Union returns the smallest box covering both b and other.
// Either receiver or argument may be nil; nil is treated as absent,
// not as a zero-size rectangle.
func (b *BoundingBox) Union(other *BoundingBox) *BoundingBox {
	if b == nil {
		if other == nil {
			return nil
		}
		c := *other
		return &c
	}
	if other == nil {
		c := *b
		return &c
	}
	x0 := min(b.X, other.X)
	y0 := min(b.Y, other.Y)
	x1 := max(b.X+b.Width, other.X+other.Width)
	y1 := max(b.Y+b.Height, other.Y+other.Height)
	return &BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether b and other intersect.
func (b *BoundingBox) Overlaps(other *BoundingBox) bool {
	if b == nil || other == nil {
		return false
	}
	return b.X < other.X+other.Width && other.X < b.X+b.Width &&
		b.Y < other.Y+other.Height && other.Y < b.Y+b.Height
}
