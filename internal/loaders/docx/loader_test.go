package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const sampleDocument = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

func TestLoad(t *testing.T) {
	l := New()

	pages, err := l.Load(context.Background(), bytes.NewReader(buildDocx(t, sampleDocument)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if len(pages[0].Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(pages[0].Blocks))
	}
	if pages[0].Blocks[0].Text != "First paragraph." {
		t.Errorf("unexpected first block: %q", pages[0].Blocks[0].Text)
	}
	if pages[0].Blocks[1].Text != "Second paragraph." {
		t.Errorf("runs not joined: %q", pages[0].Blocks[1].Text)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	l := New()

	t.Run("not a zip", func(t *testing.T) {
		_, err := l.Load(context.Background(), strings.NewReader("plain text"))
		if !errors.Is(err, domain.ErrCorruptInput) {
			t.Errorf("expected corrupt input error, got %v", err)
		}
	})

	t.Run("missing document xml", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("other.txt")
		w.Write([]byte("hi"))
		zw.Close()

		_, err := l.Load(context.Background(), bytes.NewReader(buf.Bytes()))
		if !errors.Is(err, domain.ErrCorruptInput) {
			t.Errorf("expected corrupt input error, got %v", err)
		}
	})
}
