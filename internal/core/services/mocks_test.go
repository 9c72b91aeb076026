package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockBlobStore implements driven.BlobStore for testing.
type mockBlobStore struct {
	mu     sync.Mutex
	blobs  map[string]string
	putErr error
	getErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string]string)}
}

func (m *mockBlobStore) Put(_ context.Context, handle string, r io.Reader) (int64, error) {
	if m.putErr != nil {
		return 0, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[handle] = string(data)
	return int64(len(data)), nil
}

func (m *mockBlobStore) Get(_ context.Context, handle string) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("%w: blob %q", domain.ErrNotFound, handle)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *mockBlobStore) Delete(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, handle)
	return nil
}

func (m *mockBlobStore) has(handle string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[handle]
	return ok
}

// mockLoader implements driven.Loader for testing. It emits one page
// per line of input, or a fixed error.
type mockLoader struct {
	formats []string
	loadErr error
}

func (m *mockLoader) Formats() []string {
	if len(m.formats) > 0 {
		return m.formats
	}
	return []string{"txt"}
}

func (m *mockLoader) Load(_ context.Context, r io.Reader) ([]domain.Page, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var pages []domain.Page
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		pages = append(pages, domain.Page{
			Number: i + 1,
			Blocks: []domain.Block{{Text: line}},
		})
	}
	return pages, nil
}

// mockEmbedder implements driven.EmbeddingService for testing. Each
// text embeds to a unit vector keyed by its length so distinct texts
// stay distinguishable.
type mockEmbedder struct {
	embedErr error
	batchErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.calls++
	return embedText(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// embedText maps text to a deterministic 3-dimensional vector.
func embedText(text string) []float32 {
	n := float32(len(text))
	return []float32{n, 1, 0}
}

// mockReranker implements driven.RerankService for testing.
type mockReranker struct {
	scores    []float64
	rerankErr error
	calls     int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, texts []string) ([]float64, error) {
	m.calls++
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	if m.scores != nil {
		return m.scores, nil
	}
	// Default: reverse the incoming order.
	scores := make([]float64, len(texts))
	for i := range texts {
		scores[i] = float64(i)
	}
	return scores, nil
}

func (m *mockReranker) ModelName() string            { return "mock-rerank" }
func (m *mockReranker) Ping(_ context.Context) error { return nil }
func (m *mockReranker) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply    string
	chatErr  error
	messages []driven.ChatMessage
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if m.reply != "" {
		return m.reply, nil
	}
	return "mock answer", nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }
