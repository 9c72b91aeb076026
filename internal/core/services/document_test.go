package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/veridoc-labs/veridoc/internal/adapters/driven/storage/memory"
	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

func TestDocumentService(t *testing.T) {
	docs := storagemem.NewDocStore()
	svc := NewDocumentService(docs)
	ctx := context.Background()

	require.NoError(t, docs.CreateDocument(ctx, &domain.Document{
		ID: "doc-1", Owner: "alice", Filename: "a.pdf", Format: "pdf", Status: domain.StatusIndexed,
	}))
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: domain.ChunkID("doc-1", 0), DocumentID: "doc-1", Page: 1, Index: 0, Text: "hello"},
	}))

	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	doc, err := svc.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.Filename)

	chunks, err := svc.Chunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk, err := svc.Chunk(ctx, "doc-1", chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", chunk.Text)
}

func TestDocumentService_NotFound(t *testing.T) {
	svc := NewDocumentService(storagemem.NewDocStore())
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Chunks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Chunk(ctx, "doc", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_History(t *testing.T) {
	docs := storagemem.NewDocStore()
	svc := NewDocumentService(docs)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, docs.SaveQueryRecord(ctx, &domain.QueryRecord{
			ID: string(rune('a' + i)), Owner: "alice", Query: "q", Answer: "a",
		}))
	}

	records, err := svc.History(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
