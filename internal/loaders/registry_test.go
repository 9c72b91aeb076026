package loaders

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

type fakeLoader struct {
	formats []string
}

func (f *fakeLoader) Formats() []string { return f.formats }

func (f *fakeLoader) Load(_ context.Context, _ io.Reader) ([]domain.Page, error) {
	return nil, nil
}

func TestRegistry_Detect(t *testing.T) {
	r := NewRegistry(
		&fakeLoader{formats: []string{"pdf"}},
		&fakeLoader{formats: []string{"txt", "md"}},
	)

	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"report.pdf", "pdf", false},
		{"REPORT.PDF", "pdf", false},
		{"notes.txt", "txt", false},
		{"readme.md", "md", false},
		{"image.png", "", true},
		{"noextension", "", true},
		{"archive.tar.gz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := r.Detect(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnsupportedFormat) {
					t.Errorf("expected unsupported format error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRegistry_ForFormat(t *testing.T) {
	pdf := &fakeLoader{formats: []string{"pdf"}}
	r := NewRegistry(pdf)

	l, err := r.ForFormat("pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l != pdf {
		t.Error("expected the registered loader back")
	}

	if _, err := r.ForFormat("docx"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestRegistry_Formats(t *testing.T) {
	r := NewRegistry(
		&fakeLoader{formats: []string{"pdf"}},
		&fakeLoader{formats: []string{"txt", "md"}},
	)

	formats := r.Formats()
	if len(formats) != 3 {
		t.Fatalf("expected 3 formats, got %v", formats)
	}
	if formats[0] != "pdf" || formats[1] != "txt" || formats[2] != "md" {
		t.Errorf("expected registration order, got %v", formats)
	}
}
