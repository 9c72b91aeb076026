// Package memory provides an in-memory vector index with exhaustive
// cosine search. It is the default backend for single-process use and
// the reference implementation for the index contract.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector with its insertion sequence number. The
// sequence breaks similarity ties: later writes rank first.
type entry struct {
	record driven.VectorRecord
	seq    uint64
}

// Index stores vectors in memory behind a single lock.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
	nextSeq uint64
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]entry)}
}

// Upsert inserts or replaces one vector by chunk ID.
func (idx *Index) Upsert(_ context.Context, record driven.VectorRecord) error {
	if record.ChunkID == "" {
		return fmt.Errorf("%w: record has no chunk id", domain.ErrIndexWrite)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insert(record)
	return nil
}

// UpsertBatch inserts or replaces vectors atomically: concurrent
// readers observe either none or all of the batch.
func (idx *Index) UpsertBatch(_ context.Context, records []driven.VectorRecord) error {
	for _, record := range records {
		if record.ChunkID == "" {
			return fmt.Errorf("%w: record has no chunk id", domain.ErrIndexWrite)
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, record := range records {
		idx.insert(record)
	}
	return nil
}

// insert must be called with the write lock held.
func (idx *Index) insert(record driven.VectorRecord) {
	idx.nextSeq++
	idx.entries[record.ChunkID] = entry{record: record, seq: idx.nextSeq}
}

// Delete removes one vector. Deleting an absent chunk is a no-op.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, chunkID)
	return nil
}

// DeleteByDocument removes every vector of one document atomically.
func (idx *Index) DeleteByDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, e := range idx.entries {
		if e.record.DocumentID == documentID {
			delete(idx.entries, id)
		}
	}
	return nil
}

// Query returns the k nearest stored vectors by cosine similarity,
// descending. The filter is applied before ranking, so a restrictive
// filter never starves the result of eligible neighbours. Equal
// similarities rank the more recently inserted vector first.
func (idx *Index) Query(_ context.Context, vector []float32, k int, filter driven.Filter) ([]driven.VectorHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrIndexQuery)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		entry
		sim float64
	}
	var candidates []scored
	for _, e := range idx.entries {
		if !filter.Matches(e.record) {
			continue
		}
		if len(e.record.Embedding) != len(vector) {
			return nil, fmt.Errorf("%w: dimension mismatch: query %d, stored %d",
				domain.ErrIndexQuery, len(vector), len(e.record.Embedding))
		}
		candidates = append(candidates, scored{entry: e, sim: cosine(vector, e.record.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].seq > candidates[j].seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	hits := make([]driven.VectorHit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, driven.VectorHit{
			ChunkID:    c.record.ChunkID,
			DocumentID: c.record.DocumentID,
			Page:       c.record.Page,
			Similarity: c.sim,
		})
	}
	return hits, nil
}

// Len reports the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// cosine computes cosine similarity in float64 to keep ordering stable
// for near-equal scores. Zero vectors score 0.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
