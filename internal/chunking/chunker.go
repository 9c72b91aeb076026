// Package chunking splits loader page records into overlapping,
// size-bounded chunks with positional provenance.
package chunking

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// boundaryTolerancePercent is how far behind the hard cut point (as a
// percentage of the chunk size) a sentence or paragraph boundary may
// fall and still be preferred over a hard cut.
const boundaryTolerancePercent = 15

// Chunker splits page records into chunks using a sliding window that
// prefers sentence and paragraph boundaries near the cut point.
//
// Chunking is deterministic: identical pages and identical parameters
// produce bit-identical chunk ids, text, and bounding boxes. This is
// what makes re-ingestion idempotent.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// blockRef maps a rune range of the flattened document back to the
// source block it came from.
type blockRef struct {
	start int
	end   int
	page  int
	bbox  *domain.BoundingBox
}

// Chunk splits the pages of one document into chunks. Page order is
// preserved: chunk indices are dense and increasing, and a chunk's
// page number never decreases as the index grows.
func (c *Chunker) Chunk(documentID string, pages []domain.Page) ([]domain.Chunk, error) {
	if c.chunkSize <= 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", domain.ErrChunking, c.chunkSize, c.overlap)
	}

	runes, refs := flatten(pages)
	if len(runes) == 0 {
		return nil, nil
	}

	tolerance := c.chunkSize * boundaryTolerancePercent / 100

	var chunks []domain.Chunk
	index := 0
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := boundaryCut(runes, end, tolerance); cut > start {
			end = cut
		}

		if chunk, ok := buildChunk(documentID, index, runes, refs, start, end); ok {
			chunks = append(chunks, chunk)
			index++
		}

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// flatten concatenates all blocks of all pages into one rune stream,
// separated by blank lines, and records which range each block covers.
func flatten(pages []domain.Page) ([]rune, []blockRef) {
	var runes []rune
	var refs []blockRef

	for _, page := range pages {
		for _, block := range page.Blocks {
			text := strings.TrimSpace(block.Text)
			if text == "" {
				continue
			}
			if len(runes) > 0 {
				runes = append(runes, '\n', '\n')
			}
			ref := blockRef{start: len(runes), page: page.Number, bbox: block.BBox}
			runes = append(runes, []rune(text)...)
			ref.end = len(runes)
			refs = append(refs, ref)
		}
	}
	return runes, refs
}

// boundaryCut looks backwards from the hard cut point for a paragraph
// or sentence boundary within the tolerance window. Returns the cut
// position, or 0 when no boundary falls inside the window.
func boundaryCut(runes []rune, hardEnd, tolerance int) int {
	low := hardEnd - tolerance
	if low < 0 {
		low = 0
	}
	// Paragraph boundaries win over sentence boundaries.
	for i := hardEnd - 1; i > low; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i - 1
		}
	}
	for i := hardEnd - 1; i > low; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// buildChunk assembles the chunk for runes[start:end], attributing it
// to the page of its first character and computing provenance from
// every source block the range touches.
func buildChunk(documentID string, index int, runes []rune, refs []blockRef, start, end int) (domain.Chunk, bool) {
	text := strings.TrimSpace(string(runes[start:end]))
	if text == "" {
		return domain.Chunk{}, false
	}

	// Advance past leading whitespace so page attribution follows the
	// first visible character, not a separator.
	firstChar := start
	for firstChar < end && unicode.IsSpace(runes[firstChar]) {
		firstChar++
	}

	var bbox *domain.BoundingBox
	pageSet := map[int]bool{}
	page := 0
	for _, ref := range refs {
		if ref.end <= firstChar || ref.start >= end {
			continue
		}
		if page == 0 {
			page = ref.page
		}
		pageSet[ref.page] = true
		if ref.bbox != nil {
			bbox = bbox.Union(ref.bbox)
		}
	}

	pageSpan := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pageSpan = append(pageSpan, p)
	}
	sort.Ints(pageSpan)

	return domain.Chunk{
		ID:         domain.ChunkID(documentID, index),
		DocumentID: documentID,
		Page:       page,
		Index:      index,
		Text:       text,
		BBox:       bbox,
		PageSpan:   pageSpan,
	}, true
}
