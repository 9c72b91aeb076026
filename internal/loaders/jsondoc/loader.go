// Package jsondoc loads JSON files by flattening values into
// dotted-path text lines.
package jsondoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles JSON documents.
type Loader struct{}

// New creates a JSON loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"json"}
}

// Load decodes the stream and renders every scalar leaf as a
// "path: value" line. Top-level array elements become separate blocks,
// everything else is one block on a single pseudo-page. Map keys are
// sorted so output is deterministic.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	var value any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	page := domain.Page{Number: 1}
	if items, ok := value.([]any); ok {
		for _, item := range items {
			if text := flatten("", item); text != "" {
				page.Blocks = append(page.Blocks, domain.Block{Text: text})
			}
		}
	} else if text := flatten("", value); text != "" {
		page.Blocks = append(page.Blocks, domain.Block{Text: text})
	}

	if len(page.Blocks) == 0 {
		return nil, nil
	}
	return []domain.Page{page}, nil
}

func flatten(path string, value any) string {
	var lines []string
	walk(path, value, &lines)
	return strings.Join(lines, "\n")
}

func walk(path string, value any, lines *[]string) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(join(path, k), v[k], lines)
		}
	case []any:
		for i, item := range v {
			walk(join(path, strconv.Itoa(i)), item, lines)
		}
	case string:
		if v = strings.TrimSpace(v); v != "" {
			*lines = append(*lines, render(path, v))
		}
	case json.Number:
		*lines = append(*lines, render(path, v.String()))
	case bool:
		*lines = append(*lines, render(path, strconv.FormatBool(v)))
	case nil:
		// Null leaves carry no content.
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func render(path, value string) string {
	if path == "" {
		return value
	}
	return path + ": " + value
}
