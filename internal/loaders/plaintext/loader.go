// Package plaintext loads txt and markdown files as a single
// pseudo-page.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text and markdown.
type Loader struct{}

// New creates a plaintext loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"txt", "md", "markdown"}
}

// Load reads the whole stream and emits one page per paragraph group.
// Flat formats carry no layout, so blocks have no bounding boxes and
// everything lands on page 1.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}

	page := domain.Page{Number: 1}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		page.Blocks = append(page.Blocks, domain.Block{Text: para})
	}
	return []domain.Page{page}, nil
}
