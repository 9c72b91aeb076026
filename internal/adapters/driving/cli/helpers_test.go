package cli

import (
	"context"
	"testing"

	blobfs "github.com/veridoc-labs/veridoc/internal/adapters/driven/blob/fs"
	storagemem "github.com/veridoc-labs/veridoc/internal/adapters/driven/storage/memory"
	vectormem "github.com/veridoc-labs/veridoc/internal/adapters/driven/vector/memory"
	"github.com/veridoc-labs/veridoc/internal/chunking"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/core/services"
	"github.com/veridoc-labs/veridoc/internal/loaders"
	"github.com/veridoc-labs/veridoc/internal/loaders/plaintext"
)

// stubEmbedder embeds text by length, enough to exercise the pipeline.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = s.Embed(context.Background(), t)
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int              { return 3 }
func (stubEmbedder) ModelName() string            { return "stub-embed" }
func (stubEmbedder) Ping(_ context.Context) error { return nil }
func (stubEmbedder) Close() error                 { return nil }

// stubLLM returns a fixed grounded-looking answer.
type stubLLM struct{}

func (stubLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "stub answer [1]", nil
}

func (stubLLM) ModelName() string            { return "stub-llm" }
func (stubLLM) Ping(_ context.Context) error { return nil }
func (stubLLM) Close() error                 { return nil }

// setupTestServices wires the commands to in-memory services so they
// run without configuration or external processes. ensureServices is a
// no-op once these are set.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	blobStore, err := blobfs.NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	docStore := storagemem.NewDocStore()
	vectorIndex := vectormem.NewIndex()
	registry = loaders.NewRegistry(plaintext.New())

	ingestService = services.NewIngestService(
		docStore, blobStore, registry, chunking.New(), stubEmbedder{}, vectorIndex)
	queryService = services.NewQueryService(docStore, stubEmbedder{}, vectorIndex, nil, stubLLM{})
	documentService = services.NewDocumentService(docStore)
	owner = "tester"

	return func() {
		registry = nil
		ingestService = nil
		queryService = nil
		documentService = nil
		uploadIngest = false
		queryJSON = false
		queryNoAnswer = false
		rootCmd.SetArgs(nil)
	}
}
