package driven

import "context"

// VectorIndex stores chunk vectors with payload and answers
// nearest-neighbour queries scoped by owner and document.
//
// Scores are cosine similarity in [-1, 1], returned in descending
// order. Ties break by insertion recency: the most recently indexed
// vector wins, which keeps query output deterministic.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for one chunk.
	Upsert(ctx context.Context, rec VectorRecord) error

	// UpsertBatch inserts or replaces a set of vectors. The batch is
	// atomic with respect to Query: no query observes part of it.
	UpsertBatch(ctx context.Context, recs []VectorRecord) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// DeleteByDocument removes every vector belonging to a document,
	// atomically with respect to Query.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Query finds up to k nearest neighbours to the query vector.
	// The filter is exact-match and evaluated before ranking: an
	// out-of-scope vector can never displace an in-scope one.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is one chunk's entry in the index.
type VectorRecord struct {
	// ChunkID is the stable chunk identifier (primary key).
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Owner is the document's ownership tag.
	Owner string

	// Page is the 1-based page the chunk starts on.
	Page int

	// Embedding is the chunk's vector.
	Embedding []float32
}

// Filter restricts a query to matching payload attributes.
// Zero-value fields are ignored.
type Filter struct {
	// Owner restricts results to one ownership tag.
	Owner string

	// DocumentIDs restricts results to specific documents.
	DocumentIDs []string
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(rec VectorRecord) bool {
	if f.Owner != "" && rec.Owner != f.Owner {
		return false
	}
	if len(f.DocumentIDs) > 0 {
		ok := false
		for _, id := range f.DocumentIDs {
			if rec.DocumentID == id {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's owning document.
	DocumentID string

	// Page is the chunk's starting page.
	Page int

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
