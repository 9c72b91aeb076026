// Package docx loads Word documents by unzipping the OOXML package and
// walking word/document.xml.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

var _ driven.Loader = (*Loader)(nil)

// Loader handles DOCX documents.
type Loader struct{}

// New creates a DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Formats returns the format tags this loader handles.
func (l *Loader) Formats() []string {
	return []string{"docx"}
}

// Load extracts paragraph text from the document body. DOCX has no
// fixed pagination before rendering, so paragraphs become blocks on a
// single pseudo-page without bounding boxes.
func (l *Loader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", domain.ErrCorruptInput, err)
	}

	paragraphs, err := extractParagraphs(archive)
	if err != nil {
		return nil, err
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}

	page := domain.Page{Number: 1}
	for _, para := range paragraphs {
		page.Blocks = append(page.Blocks, domain.Block{Text: para})
	}
	return []domain.Page{page}, nil
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func extractParagraphs(archive *zip.Reader) ([]string, error) {
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
		}

		var paragraphs []string
		for _, para := range doc.Body.Paragraphs {
			var b strings.Builder
			for _, run := range para.Runs {
				for _, text := range run.Text {
					b.WriteString(text.Content)
				}
			}
			if s := strings.TrimSpace(b.String()); s != "" {
				paragraphs = append(paragraphs, s)
			}
		}
		return paragraphs, nil
	}
	return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrCorruptInput)
}
