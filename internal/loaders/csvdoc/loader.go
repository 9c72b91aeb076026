// Package csvdoc loads CSV files row by row, rendering each record as
// a "header: value" block so column context survives chunking.
package csvdoc

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles CSV files.
type Loader struct{}

// New creates a CSV loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"csv"}
}

// Load parses the stream as CSV with the first record as header. Each
// data row becomes one block on a single pseudo-page, so retrieval
// returns whole rows rather than arbitrary cell fragments.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	page := domain.Page{Number: 1}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
		}
		if text := renderRow(header, record); text != "" {
			page.Blocks = append(page.Blocks, domain.Block{Text: text})
		}
	}

	if len(page.Blocks) == 0 {
		return nil, nil
	}
	return []domain.Page{page}, nil
}

func renderRow(header, record []string) string {
	var parts []string
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.TrimSpace(header[i]), value))
		} else {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ", ")
}
