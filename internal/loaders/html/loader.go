// Package html loads HTML documents by walking the parsed node tree
// and keeping readable text.
package html

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles HTML documents.
type Loader struct{}

// New creates an HTML loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"html", "htm", "xhtml"}
}

// skipElements are subtrees that carry no readable text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"svg":      true,
	"template": true,
}

// blockElements flush the current text run into its own block.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true,
	"table": true, "br": true, "hr": true,
}

// Load parses the stream and emits one block per block-level element
// on a single pseudo-page. HTML has no page geometry, so blocks have
// no bounding boxes.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	var blocks []domain.Block
	var current strings.Builder

	flush := func() {
		if text := collapse(current.String()); text != "" {
			blocks = append(blocks, domain.Block{Text: text})
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		isBlock := n.Type == html.ElementNode && blockElements[n.Data]
		if isBlock {
			flush()
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if isBlock {
			flush()
		}
	}
	walk(root)
	flush()

	if len(blocks) == 0 {
		return nil, nil
	}
	return []domain.Page{{Number: 1, Blocks: blocks}}, nil
}

// collapse trims the text and squeezes runs of whitespace into single
// spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
