package pdf

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

// buildPDF assembles a minimal single-xref-free PDF around the given
// page content streams.
func buildPDF(contents ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var kids []string
	for i := range contents {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	fmt.Fprintf(&buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>\nendobj\n",
		strings.Join(kids, " "), len(contents))

	for i, content := range contents {
		pageNum := 3 + 2*i
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /Contents %d 0 R >>\nendobj\n",
			pageNum, pageNum+1)
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n", pageNum+1, len(content))
		buf.Write(content)
		buf.WriteString("\nendstream\nendobj\n")
	}

	buf.WriteString("%%EOF\n")
	return buf.Bytes()
}

func TestExtractText_KernAndShowShareMatrixScale(t *testing.T) {
	// With a doubled text matrix, shown advances and TJ kerning must
	// displace by the same factor or kerned runs drift within a line.
	content := []byte("BT /F1 10 Tf 2 0 0 2 100 700 Tm [(AB) -500 (CD)] TJ ET")

	runs, err := extractText(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].x != 100 {
		t.Errorf("first run at x=%g, expected 100", runs[0].x)
	}
	// AB advances 2 glyphs * 0.5 * (10 * 2) = 20 device units; the
	// -500 kern adds 500/1000 * 10 * 2 = 10 more.
	if runs[1].x != 130 {
		t.Errorf("kerned run at x=%g, expected 130", runs[1].x)
	}
}

func TestLoad_SinglePage(t *testing.T) {
	content := []byte("BT /F1 12 Tf 72 720 Td (Hello world) Tj 0 -14 TD (Second line) Tj ET")
	l := New()

	pages, err := l.Load(context.Background(), bytes.NewReader(buildPDF(content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	page := pages[0]
	if page.Number != 1 {
		t.Errorf("expected page number 1, got %d", page.Number)
	}
	if page.Width != 612 || page.Height != 792 {
		t.Errorf("expected 612x792 media box, got %gx%g", page.Width, page.Height)
	}
	if len(page.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(page.Blocks))
	}
	if page.Blocks[0].Text != "Hello world" {
		t.Errorf("expected first block %q, got %q", "Hello world", page.Blocks[0].Text)
	}
	if page.Blocks[1].Text != "Second line" {
		t.Errorf("expected second block %q, got %q", "Second line", page.Blocks[1].Text)
	}
}

func TestLoad_TopLeftCoordinates(t *testing.T) {
	content := []byte("BT /F1 12 Tf 72 720 Td (Hello world) Tj ET")
	l := New()

	pages, err := l.Load(context.Background(), bytes.NewReader(buildPDF(content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbox := pages[0].Blocks[0].BBox
	if bbox == nil {
		t.Fatal("expected a bounding box")
	}
	if bbox.X != 72 {
		t.Errorf("expected x 72, got %g", bbox.X)
	}
	// Baseline 720 with a 12pt glyph box on a 792pt page puts the top
	// edge at 792-720-12 = 60 in top-left coordinates.
	if bbox.Y != 60 {
		t.Errorf("expected y 60, got %g", bbox.Y)
	}
	if bbox.Height != 12 {
		t.Errorf("expected height 12, got %g", bbox.Height)
	}
	if bbox.Width <= 0 {
		t.Errorf("expected positive width, got %g", bbox.Width)
	}
}

func TestLoad_PageOrder(t *testing.T) {
	l := New()
	pdf := buildPDF(
		[]byte("BT /F1 12 Tf 72 720 Td (page one) Tj ET"),
		[]byte("BT /F1 12 Tf 72 720 Td (page two) Tj ET"),
	)

	pages, err := l.Load(context.Background(), bytes.NewReader(pdf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("expected page numbers 1,2, got %d,%d", pages[0].Number, pages[1].Number)
	}
	if pages[0].Blocks[0].Text != "page one" || pages[1].Blocks[0].Text != "page two" {
		t.Error("page tree order not preserved")
	}
}

func TestLoad_FlateDecode(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write([]byte("BT /F1 12 Tf 72 720 Td (compressed text) Tj ET"))
	zw.Close()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>\nendobj\n")
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>\nendobj\n")
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d /Filter /FlateDecode >>\nstream\n", compressed.Len())
	buf.Write(compressed.Bytes())
	buf.WriteString("\nendstream\nendobj\n%%EOF\n")

	l := New()
	pages, err := l.Load(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || len(pages[0].Blocks) != 1 {
		t.Fatalf("expected 1 page with 1 block, got %+v", pages)
	}
	if pages[0].Blocks[0].Text != "compressed text" {
		t.Errorf("unexpected text: %q", pages[0].Blocks[0].Text)
	}
}

func TestLoad_KerningArray(t *testing.T) {
	content := []byte("BT /F1 12 Tf 72 720 Td [(Hel) -20 (lo)] TJ ET")
	l := New()

	pages, err := l.Load(context.Background(), bytes.NewReader(buildPDF(content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages[0].Blocks) != 1 {
		t.Fatalf("expected kerned fragments merged into one block, got %d", len(pages[0].Blocks))
	}
	if pages[0].Blocks[0].Text != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", pages[0].Blocks[0].Text)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	l := New()

	cases := map[string]string{
		"not a pdf":   "this is just text",
		"empty":       "",
		"header only": "%PDF-1.4\n",
	}
	for label, input := range cases {
		t.Run(label, func(t *testing.T) {
			_, err := l.Load(context.Background(), strings.NewReader(input))
			if !errors.Is(err, domain.ErrCorruptInput) {
				t.Errorf("expected corrupt input error, got %v", err)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	formats := New().Formats()
	if len(formats) != 1 || formats[0] != "pdf" {
		t.Errorf("unexpected formats: %v", formats)
	}
}
