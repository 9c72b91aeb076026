// Package milvus provides a vector index adapter backed by a Milvus
// collection, for deployments whose corpus outgrows the in-memory
// index.
package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultAddress    = "localhost:19530"
	DefaultCollection = "chunks"
)

// Field names of the chunk collection.
const (
	fieldChunkID    = "chunk_id"
	fieldDocumentID = "document_id"
	fieldOwner      = "owner"
	fieldPage       = "page"
	fieldEmbedding  = "embedding"
)

// Config holds configuration for the Milvus index.
type Config struct {
	// Address is the Milvus endpoint (default: localhost:19530).
	Address string

	// Collection is the collection name (default: chunks).
	Collection string

	// Dimensions is the embedding vector size (required).
	Dimensions int
}

// Index stores chunk vectors in a Milvus collection indexed with HNSW
// under the cosine metric, so scores come back as cosine similarity.
type Index struct {
	client     *milvusclient.Client
	collection string
	dimensions int
}

// NewIndex connects to Milvus and ensures the chunk collection exists
// and is loaded.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("milvus: dimensions are required")
	}

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("milvus: connect to %s: %w", cfg.Address, err)
	}

	idx := &Index{
		client:     client,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
	if err := idx.ensureCollection(ctx); err != nil {
		client.Close(ctx)
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(idx.collection))
	if err != nil {
		return fmt.Errorf("milvus: check collection: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: idx.collection,
			Description:    "Embedded document chunks",
			Fields: []*entity.Field{
				{
					Name:       fieldChunkID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": "64"},
				},
				{
					Name:       fieldDocumentID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       fieldOwner,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:     fieldPage,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       fieldEmbedding,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", idx.dimensions)},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(idx.collection, schema)
		if err := idx.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("milvus: create collection: %w", err)
		}

		hnsw := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(idx.collection, fieldEmbedding, hnsw)
		if _, err := idx.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("milvus: create vector index: %w", err)
		}
	}

	loadOpt := milvusclient.NewLoadCollectionOption(idx.collection)
	if _, err := idx.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("milvus: load collection: %w", err)
	}
	return nil
}

// Upsert inserts or replaces one vector by chunk ID.
func (idx *Index) Upsert(ctx context.Context, record driven.VectorRecord) error {
	return idx.UpsertBatch(ctx, []driven.VectorRecord{record})
}

// UpsertBatch inserts or replaces vectors in one call.
func (idx *Index) UpsertBatch(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(records))
	documentIDs := make([]string, len(records))
	owners := make([]string, len(records))
	pages := make([]int64, len(records))
	embeddings := make([][]float32, len(records))
	for i, r := range records {
		if r.ChunkID == "" {
			return fmt.Errorf("%w: record has no chunk id", domain.ErrIndexWrite)
		}
		if len(r.Embedding) != idx.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrIndexWrite, r.ChunkID, len(r.Embedding), idx.dimensions)
		}
		chunkIDs[i] = r.ChunkID
		documentIDs[i] = r.DocumentID
		owners[i] = r.Owner
		pages[i] = int64(r.Page)
		embeddings[i] = r.Embedding
	}

	upsertOpt := milvusclient.NewColumnBasedInsertOption(idx.collection,
		column.NewColumnVarChar(fieldChunkID, chunkIDs),
		column.NewColumnVarChar(fieldDocumentID, documentIDs),
		column.NewColumnVarChar(fieldOwner, owners),
		column.NewColumnInt64(fieldPage, pages),
		column.NewColumnFloatVector(fieldEmbedding, idx.dimensions, embeddings),
	)
	if _, err := idx.client.Upsert(ctx, upsertOpt); err != nil {
		return fmt.Errorf("%w: milvus upsert: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// Delete removes one vector by chunk ID.
func (idx *Index) Delete(ctx context.Context, chunkID string) error {
	deleteOpt := milvusclient.NewDeleteOption(idx.collection).
		WithExpr(fmt.Sprintf("%s == %s", fieldChunkID, quote(chunkID)))
	if _, err := idx.client.Delete(ctx, deleteOpt); err != nil {
		return fmt.Errorf("%w: milvus delete: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// DeleteByDocument removes every vector of one document.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	deleteOpt := milvusclient.NewDeleteOption(idx.collection).
		WithExpr(fmt.Sprintf("%s == %s", fieldDocumentID, quote(documentID)))
	if _, err := idx.client.Delete(ctx, deleteOpt); err != nil {
		return fmt.Errorf("%w: milvus delete by document: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// Query searches the collection for the k nearest vectors. Filtering
// happens inside Milvus before ranking.
func (idx *Index) Query(ctx context.Context, vector []float32, k int, filter driven.Filter) ([]driven.VectorHit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrIndexQuery, len(vector), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	searchOpt := milvusclient.NewSearchOption(idx.collection, k, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(fieldEmbedding).
		WithOutputFields(fieldChunkID, fieldDocumentID, fieldPage)
	if expr := filterExpr(filter); expr != "" {
		searchOpt = searchOpt.WithFilter(expr)
	}

	resultSets, err := idx.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("%w: milvus search: %v", domain.ErrIndexQuery, err)
	}
	if len(resultSets) == 0 {
		return nil, nil
	}

	rs := resultSets[0]
	chunkCol := rs.GetColumn(fieldChunkID)
	docCol := rs.GetColumn(fieldDocumentID)
	pageCol := rs.GetColumn(fieldPage)
	if chunkCol == nil || docCol == nil || pageCol == nil {
		return nil, fmt.Errorf("%w: milvus result is missing output fields", domain.ErrIndexQuery)
	}

	hits := make([]driven.VectorHit, 0, chunkCol.Len())
	for i := 0; i < chunkCol.Len(); i++ {
		chunkID, err := chunkCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("%w: read chunk id: %v", domain.ErrIndexQuery, err)
		}
		documentID, err := docCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("%w: read document id: %v", domain.ErrIndexQuery, err)
		}
		page, err := pageCol.GetAsInt64(i)
		if err != nil {
			return nil, fmt.Errorf("%w: read page: %v", domain.ErrIndexQuery, err)
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			DocumentID: documentID,
			Page:       int(page),
			Similarity: float64(rs.Scores[i]),
		})
	}
	return hits, nil
}

// Close disconnects from Milvus.
func (idx *Index) Close() error {
	return idx.client.Close(context.Background())
}

// filterExpr renders the filter as a Milvus boolean expression.
func filterExpr(filter driven.Filter) string {
	var clauses []string
	if filter.Owner != "" {
		clauses = append(clauses, fmt.Sprintf("%s == %s", fieldOwner, quote(filter.Owner)))
	}
	if len(filter.DocumentIDs) > 0 {
		quoted := make([]string, len(filter.DocumentIDs))
		for i, id := range filter.DocumentIDs {
			quoted[i] = quote(id)
		}
		clauses = append(clauses, fmt.Sprintf("%s in [%s]", fieldDocumentID, strings.Join(quoted, ", ")))
	}
	return strings.Join(clauses, " && ")
}

// quote renders a string literal for a Milvus expression.
func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
