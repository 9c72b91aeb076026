package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/veridoc-labs/veridoc/internal/adapters/driven/storage/memory"
	vectormem "github.com/veridoc-labs/veridoc/internal/adapters/driven/vector/memory"
	"github.com/veridoc-labs/veridoc/internal/chunking"
	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/loaders"
)

// Full pipeline walkthrough: a three page invoice is ingested, then a
// question whose answer lives on page two is asked. The citation must
// point at page two with the region of the amount line.

var invoicePages = []domain.Page{
	{
		Number: 1, Width: 612, Height: 792,
		Blocks: []domain.Block{{
			Text: "ACME Corporation invoice number 2024-0017 was issued in January for consulting services.",
			BBox: &domain.BoundingBox{X: 72, Y: 90, Width: 430, Height: 14},
		}},
	},
	{
		Number: 2, Width: 612, Height: 792,
		Blocks: []domain.Block{{
			Text: "The total amount due for this invoice is 1,250.00 EUR payable within thirty days of now.",
			BBox: &domain.BoundingBox{X: 72, Y: 540, Width: 450, Height: 14},
		}},
	},
	{
		Number: 3, Width: 612, Height: 792,
		Blocks: []domain.Block{{
			Text: "Late payments accrue interest at two percent monthly as stated in the framework contract.",
			BBox: &domain.BoundingBox{X: 72, Y: 120, Width: 445, Height: 14},
		}},
	},
}

// invoiceLoader emits the fixture regardless of input bytes.
type invoiceLoader struct{}

func (invoiceLoader) Formats() []string { return []string{"pdf"} }

func (invoiceLoader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	io.Copy(io.Discard, r)
	return invoicePages, nil
}

// keywordEmbedder embeds text by keyword occurrence, so relatedness of
// question and passage is reflected in cosine similarity.
type keywordEmbedder struct{}

func (keywordEmbedder) embed(text string) []float32 {
	text = strings.ToLower(text)
	vec := []float32{0, 0, 0, 1}
	for i, word := range []string{"amount", "invoice", "interest"} {
		if strings.Contains(text, word) {
			vec[i] = 1
		}
	}
	return vec
}

func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (keywordEmbedder) Dimensions() int              { return 4 }
func (keywordEmbedder) ModelName() string            { return "keyword" }
func (keywordEmbedder) Ping(_ context.Context) error { return nil }
func (keywordEmbedder) Close() error                 { return nil }

func TestInvoiceScenario(t *testing.T) {
	ctx := context.Background()

	docs := storagemem.NewDocStore()
	vectors := vectormem.NewIndex()
	blobs := newMockBlobStore()
	llm := &mockLLM{reply: "The total amount due is 1,250.00 EUR [1]."}

	// Page texts are under the chunk size and end at paragraph
	// boundaries, so each page becomes its own chunk.
	ingest := NewIngestService(
		docs, blobs,
		loaders.NewRegistry(invoiceLoader{}),
		chunking.New(chunking.WithChunkSize(100), chunking.WithOverlap(0)),
		keywordEmbedder{}, vectors,
	)
	query := NewQueryService(docs, keywordEmbedder{}, vectors, nil, llm)

	doc, err := ingest.Upload(ctx, "alice", "invoice.pdf", strings.NewReader("%PDF-"))
	require.NoError(t, err)
	require.NoError(t, ingest.Ingest(ctx, doc.ID))

	chunks, err := docs.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i+1, chunk.Page)
	}

	answer, err := query.Answer(ctx, domain.QueryRequest{
		Query: "What is the total amount due?",
		Owner: "alice",
		TopK:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, "The total amount due is 1,250.00 EUR [1].", answer.Text)
	require.Len(t, answer.Sources, 1)

	src := answer.Sources[0]
	assert.Equal(t, doc.ID, src.DocumentID)
	assert.Equal(t, 2, src.Page, "the amount lives on page two")
	require.NotNil(t, src.BBox)
	assert.Equal(t, 540.0, src.BBox.Y)
	assert.Equal(t, 450.0, src.BBox.Width)

	// The synthesizer saw the cited passage and nothing from the
	// other pages.
	system := llm.messages[0].Content
	assert.Contains(t, system, "total amount due")
	assert.NotContains(t, system, "ACME Corporation")
	assert.NotContains(t, system, "Late payments")
}

// driven interface conformance for the fixtures.
var (
	_ driven.Loader           = invoiceLoader{}
	_ driven.EmbeddingService = keywordEmbedder{}
)
