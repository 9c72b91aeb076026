// Package loaders routes uploaded files to the format loader that can
// turn them into page records.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Registry maps file extensions to loaders. Detection is by extension,
// lowercased, without the leading dot.
type Registry struct {
	byFormat map[string]driven.Loader
	formats  []string
}

// NewRegistry creates a registry with the given loaders. Later loaders
// win when two claim the same format.
func NewRegistry(loaders ...driven.Loader) *Registry {
	r := &Registry{byFormat: make(map[string]driven.Loader)}
	for _, l := range loaders {
		for _, f := range l.Formats() {
			f = strings.ToLower(f)
			if _, seen := r.byFormat[f]; !seen {
				r.formats = append(r.formats, f)
			}
			r.byFormat[f] = l
		}
	}
	return r
}

// Formats returns every registered format in registration order.
func (r *Registry) Formats() []string {
	return r.formats
}

// Detect returns the format for a filename, or an error wrapping
// domain.ErrUnsupportedFormat when no loader claims the extension.
func (r *Registry) Detect(filename string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if format == "" {
		return "", fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFormat, filename)
	}
	if _, ok := r.byFormat[format]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return format, nil
}

// ForFormat returns the loader registered for a format.
func (r *Registry) ForFormat(format string) (driven.Loader, error) {
	l, ok := r.byFormat[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return l, nil
}
