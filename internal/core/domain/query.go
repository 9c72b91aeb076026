package domain

import "time"

// QueryRequest is a transient query against the indexed corpus.
type QueryRequest struct {
	// Query is the natural-language question.
	Query string

	// Owner scopes retrieval to documents with this ownership tag.
	Owner string

	// DocumentIDs optionally narrows the scope to specific documents.
	DocumentIDs []string

	// TopK is the number of chunks handed to the synthesizer.
	TopK int

	// UseReranking enables the cross-encoder rerank pass.
	UseReranking bool

	// History carries prior conversation turns for context.
	History []ChatTurn
}

// ChatTurn is one prior message in a conversation.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// RetrievalResult is one ranked candidate from the vector index.
type RetrievalResult struct {
	// Chunk is the retrieved chunk, hydrated from the metadata store.
	Chunk Chunk

	// Similarity is the raw cosine similarity from retrieval.
	Similarity float64

	// RerankScore is the cross-encoder score, when reranking ran.
	RerankScore float64
}

// Source identifies a chunk the synthesizer actually cited. This is
// what crosses the system boundary to the presentation layer so it can
// highlight the source region.
type Source struct {
	ChunkID    string       `json:"chunk_id"`
	DocumentID string       `json:"document_id"`
	Page       int          `json:"page_number"`
	Similarity float64      `json:"similarity"`
	BBox       *BoundingBox `json:"bbox,omitempty"`
}

// Answer is the grounded response to a query.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"answer"`

	// Sources are exactly the chunks included in the grounding
	// context, in rank order.
	Sources []Source `json:"sources"`

	// Warning is set when a non-fatal stage degraded (reranker down).
	Warning string `json:"warning,omitempty"`

	// RetrievalTime covers embedding the query and searching the index.
	RetrievalTime time.Duration `json:"retrieval_time"`

	// GenerationTime covers the answer generation call.
	GenerationTime time.Duration `json:"generation_time"`
}

// QueryRecord is one entry in the persisted query history log.
type QueryRecord struct {
	ID        string
	Owner     string
	Query     string
	Answer    string
	ChunkIDs  []string
	CreatedAt time.Time
}
