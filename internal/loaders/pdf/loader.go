// Package pdf loads PDF files with positional text extraction. It
// reads the page tree and interprets content stream text operators
// directly, so every block carries the rectangle it was drawn in.
//
// Scanned PDFs without a text layer yield no blocks; OCR is out of
// scope.
package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles PDF documents.
type Loader struct{}

// New creates a PDF loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"pdf"}
}

// Load parses the document and returns one page record per page, in
// page tree order. Each text line becomes a block whose bounding box
// uses top-left page coordinates, matching how viewers place
// highlights.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	nodes, err := doc.pageTree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	pages := make([]domain.Page, 0, len(nodes))
	for i, node := range nodes {
		page, err := buildPage(doc, node, i+1)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrCorruptInput, i+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func buildPage(doc *document, node pageNode, number int) (domain.Page, error) {
	width := node.mediaBox[2] - node.mediaBox[0]
	height := node.mediaBox[3] - node.mediaBox[1]
	page := domain.Page{Number: number, Width: width, Height: height}

	var runs []textRun
	for _, s := range node.contents {
		content, err := doc.decode(s)
		if err != nil {
			return domain.Page{}, err
		}
		streamRuns, err := extractText(content)
		if err != nil {
			return domain.Page{}, err
		}
		runs = append(runs, streamRuns...)
	}

	for _, ln := range assembleLines(runs) {
		text := ln.text()
		if text == "" {
			continue
		}
		x, baseline, w, h := ln.bounds()
		// Flip from PDF bottom-left coordinates to top-left ones.
		page.Blocks = append(page.Blocks, domain.Block{
			Text: text,
			BBox: &domain.BoundingBox{
				X:      x - node.mediaBox[0],
				Y:      height - (baseline - node.mediaBox[1]) - h,
				Width:  w,
				Height: h,
			},
		})
	}
	return page, nil
}
