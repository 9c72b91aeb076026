package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

func record(chunkID, docID, owner string, embedding ...float32) driven.VectorRecord {
	return driven.VectorRecord{
		ChunkID:    chunkID,
		DocumentID: docID,
		Owner:      owner,
		Page:       1,
		Embedding:  embedding,
	}
}

func TestQuery_CosineOrdering(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	idx.Upsert(ctx, record("c1", "d1", "u1", 1, 0))
	idx.Upsert(ctx, record("c2", "d1", "u1", 0.7, 0.7))
	idx.Upsert(ctx, record("c3", "d1", "u1", 0, 1))

	hits, err := idx.Query(ctx, []float32{1, 0}, 3, driven.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "c1" || hits[1].ChunkID != "c2" || hits[2].ChunkID != "c3" {
		t.Errorf("unexpected order: %v %v %v", hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID)
	}
	if hits[0].Similarity < 0.999 {
		t.Errorf("identical direction should score ~1, got %g", hits[0].Similarity)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Error("similarities not descending")
		}
	}
}

func TestQuery_OppositeVectorsScoreNegative(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	idx.Upsert(ctx, record("c1", "d1", "u1", -1, 0))

	hits, err := idx.Query(ctx, []float32{1, 0}, 1, driven.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].Similarity > -0.999 {
		t.Errorf("opposite direction should score ~-1, got %g", hits[0].Similarity)
	}
}

func TestQuery_TieBreakByRecency(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	// Identical vectors: the later insertion must rank first.
	idx.Upsert(ctx, record("older", "d1", "u1", 1, 0))
	idx.Upsert(ctx, record("newer", "d1", "u1", 1, 0))

	hits, err := idx.Query(ctx, []float32{1, 0}, 2, driven.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].ChunkID != "newer" || hits[1].ChunkID != "older" {
		t.Errorf("expected newer first on tie, got %v then %v", hits[0].ChunkID, hits[1].ChunkID)
	}

	// Re-upserting the older chunk refreshes its recency.
	idx.Upsert(ctx, record("older", "d1", "u1", 1, 0))
	hits, _ = idx.Query(ctx, []float32{1, 0}, 2, driven.Filter{})
	if hits[0].ChunkID != "older" {
		t.Errorf("expected re-upserted chunk first on tie, got %v", hits[0].ChunkID)
	}
}

func TestQuery_FilterBeforeRanking(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	// The closest vectors belong to another document. With k=2 and a
	// document filter, the eligible but weaker matches must surface.
	idx.Upsert(ctx, record("close1", "other", "u1", 1, 0))
	idx.Upsert(ctx, record("close2", "other", "u1", 0.99, 0.01))
	idx.Upsert(ctx, record("far1", "wanted", "u1", 0, 1))
	idx.Upsert(ctx, record("far2", "wanted", "u1", 0.1, 1))

	hits, err := idx.Query(ctx, []float32{1, 0}, 2, driven.Filter{DocumentIDs: []string{"wanted"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.DocumentID != "wanted" {
			t.Errorf("filter leaked document %q", h.DocumentID)
		}
	}
}

func TestQuery_OwnerFilter(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	idx.Upsert(ctx, record("mine", "d1", "alice", 1, 0))
	idx.Upsert(ctx, record("theirs", "d2", "bob", 1, 0))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, driven.Filter{Owner: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "mine" {
		t.Errorf("expected only alice's vector, got %v", hits)
	}
}

func TestQuery_OwnerAndDocumentFilterCombine(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	// Both conditions must hold on the stored record: right owner but
	// wrong document, and right document but wrong owner, are excluded.
	idx.Upsert(ctx, record("both", "d1", "alice", 1, 0))
	idx.Upsert(ctx, record("wrong-doc", "d2", "alice", 1, 0))
	idx.Upsert(ctx, record("wrong-owner", "d1", "bob", 1, 0))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, driven.Filter{
		Owner:       "alice",
		DocumentIDs: []string{"d1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "both" {
		t.Errorf("expected only the fully matching vector, got %v", hits)
	}
}

func TestUpsertBatch_ReplacesByChunkID(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	if err := idx.UpsertBatch(ctx, []driven.VectorRecord{
		record("c1", "d1", "u1", 1, 0),
		record("c2", "d1", "u1", 0, 1),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := idx.UpsertBatch(ctx, []driven.VectorRecord{
		record("c1", "d1", "u1", 0, 1),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 2 {
		t.Errorf("upsert must replace, not duplicate: %d entries", idx.Len())
	}
}

func TestUpsertBatch_RejectsEmptyChunkID(t *testing.T) {
	idx := NewIndex()
	err := idx.UpsertBatch(context.Background(), []driven.VectorRecord{
		record("c1", "d1", "u1", 1, 0),
		record("", "d1", "u1", 0, 1),
	})
	if !errors.Is(err, domain.ErrIndexWrite) {
		t.Fatalf("expected index write error, got %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("failed batch must not apply partially: %d entries", idx.Len())
	}
}

func TestDeleteByDocument(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	idx.Upsert(ctx, record("c1", "doomed", "u1", 1, 0))
	idx.Upsert(ctx, record("c2", "doomed", "u1", 0, 1))
	idx.Upsert(ctx, record("c3", "kept", "u1", 1, 1))

	if err := idx.DeleteByDocument(ctx, "doomed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 remaining vector, got %d", idx.Len())
	}
	hits, _ := idx.Query(ctx, []float32{1, 1}, 10, driven.Filter{})
	if len(hits) != 1 || hits[0].ChunkID != "c3" {
		t.Errorf("unexpected survivors: %v", hits)
	}
}

func TestQuery_DimensionMismatch(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	idx.Upsert(ctx, record("c1", "d1", "u1", 1, 0, 0))

	_, err := idx.Query(ctx, []float32{1, 0}, 1, driven.Filter{})
	if !errors.Is(err, domain.ErrIndexQuery) {
		t.Errorf("expected index query error, got %v", err)
	}
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	idx.Upsert(ctx, record("c1", "d1", "u1", 1, 0))

	hits, err := idx.Query(ctx, []float32{1, 0}, 50, driven.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}
