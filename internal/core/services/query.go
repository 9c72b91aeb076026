package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driving"
	"github.com/veridoc-labs/veridoc/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultTopK is how many chunks reach the synthesizer when the
// request does not say.
const DefaultTopK = 5

// contextBudget caps the total characters of chunk text placed in the
// generation context.
const contextBudget = 6000

// historyWindow is how many prior conversation turns are kept.
const historyWindow = 10

// rerankPool is the minimum candidate pool retrieved when a rerank
// pass will reorder it.
const rerankPool = 20

const noAnswerText = "I could not find anything relevant in your documents."

const systemPromptHeader = `You are a document assistant. Answer the question using only the numbered context passages below. Cite passages as [1], [2] and so on. If the context does not contain the answer, say so plainly instead of guessing.`

// QueryService drives the read path: retrieve, rerank, synthesize.
// The rerank service is optional; when nil or unavailable, ordering
// falls back to raw similarity.
type QueryService struct {
	docStore         driven.DocumentStore
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	rerankService    driven.RerankService
	llmService       driven.LLMService
}

// NewQueryService creates a new query service. rerankService may be nil.
func NewQueryService(
	docStore driven.DocumentStore,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	rerankService driven.RerankService,
	llmService driven.LLMService,
) *QueryService {
	return &QueryService{
		docStore:         docStore,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		rerankService:    rerankService,
		llmService:       llmService,
	}
}

// Retrieve runs retrieval, and reranking if requested, without answer
// generation.
func (s *QueryService) Retrieve(ctx context.Context, req domain.QueryRequest) ([]domain.RetrievalResult, error) {
	results, _, err := s.retrieve(ctx, req)
	return results, err
}

// Answer retrieves chunks relevant to the request, optionally reranks
// them, and synthesizes a grounded answer. Sources are exactly the
// chunks placed in the generation context, in rank order.
func (s *QueryService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	logger.Section("Query")
	logger.Debug("Query: %q (owner=%s, topK=%d, rerank=%t)", req.Query, req.Owner, req.TopK, req.UseReranking)

	retrievalStart := time.Now()
	results, warning, err := s.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart)
	logger.Debug("Retrieved %d chunks in %s", len(results), retrievalTime)

	included, contextBlock := buildContext(results)

	answer := &domain.Answer{
		Warning:       warning,
		RetrievalTime: retrievalTime,
	}

	if len(included) == 0 {
		answer.Text = noAnswerText
		return answer, nil
	}

	messages := s.buildMessages(req, contextBlock)

	generationStart := time.Now()
	text, err := s.llmService.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer.GenerationTime = time.Since(generationStart)
	answer.Text = text

	answer.Sources = make([]domain.Source, len(included))
	for i, res := range included {
		answer.Sources[i] = domain.Source{
			ChunkID:    res.Chunk.ID,
			DocumentID: res.Chunk.DocumentID,
			Page:       res.Chunk.Page,
			Similarity: res.Similarity,
			BBox:       res.Chunk.BBox,
		}
	}

	s.recordQuery(ctx, req, answer)

	logger.Info("Answered with %d sources (retrieval %s, generation %s)",
		len(answer.Sources), answer.RetrievalTime, answer.GenerationTime)
	return answer, nil
}

// retrieve embeds the query, searches the index within the request
// scope, hydrates the hits, and optionally reranks. The warning is
// non-empty when a rerank pass was requested but degraded.
func (s *QueryService) retrieve(ctx context.Context, req domain.QueryRequest) ([]domain.RetrievalResult, string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, "", fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Retrieve a wider pool when a rerank pass will reorder it, so a
	// chunk the cross-encoder prefers is not cut before it can win.
	poolSize := topK
	if req.UseReranking && s.rerankService != nil && poolSize < rerankPool {
		poolSize = rerankPool
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Query(ctx, embedding, poolSize, driven.Filter{
		Owner:       req.Owner,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		return nil, "", fmt.Errorf("query index: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.docStore.GetChunk(ctx, hit.DocumentID, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted between indexing and now, skip it.
				continue
			}
			return nil, "", fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}
		results = append(results, domain.RetrievalResult{
			Chunk:      *chunk,
			Similarity: hit.Similarity,
		})
	}

	var warning string
	if req.UseReranking && s.rerankService != nil && len(results) > 0 {
		reranked, err := s.rerank(ctx, query, results)
		switch {
		case errors.Is(err, domain.ErrRerankService):
			logger.Warn("Rerank unavailable, falling back to similarity order: %v", err)
			warning = "reranking unavailable, results ordered by similarity"
		case err != nil:
			return nil, "", err
		default:
			results = reranked
		}
	}

	if len(results) > topK {
		results = results[:topK]
	}
	return results, warning, nil
}

// rerank scores the candidates against the query and reorders them by
// rerank score, descending. The sort is stable, so equal scores keep
// their similarity order.
func (s *QueryService) rerank(ctx context.Context, query string, results []domain.RetrievalResult) ([]domain.RetrievalResult, error) {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Chunk.Text
	}

	scores, err := s.rerankService.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(results) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates",
			domain.ErrRerankService, len(scores), len(results))
	}

	reranked := make([]domain.RetrievalResult, len(results))
	copy(reranked, results)
	for i := range reranked {
		reranked[i].RerankScore = scores[i]
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})
	return reranked, nil
}

// buildContext selects results in rank order until the character
// budget is spent and renders them as numbered passages. The first
// result is always included, even when it alone exceeds the budget.
func buildContext(results []domain.RetrievalResult) ([]domain.RetrievalResult, string) {
	var included []domain.RetrievalResult
	var b strings.Builder
	used := 0

	for _, res := range results {
		if len(included) > 0 && used+len(res.Chunk.Text) > contextBudget {
			break
		}
		fmt.Fprintf(&b, "[%d] (page %d)\n%s\n\n", len(included)+1, res.Chunk.Page, res.Chunk.Text)
		used += len(res.Chunk.Text)
		included = append(included, res)
	}

	return included, b.String()
}

// buildMessages assembles the chat transcript: system prompt with the
// grounding context, the recent conversation window, then the query.
func (s *QueryService) buildMessages(req domain.QueryRequest, contextBlock string) []driven.ChatMessage {
	messages := []driven.ChatMessage{{
		Role:    "system",
		Content: systemPromptHeader + "\n\nContext:\n\n" + contextBlock,
	}}

	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, driven.ChatMessage{Role: "user", Content: req.Query})
	return messages
}

// recordQuery appends the exchange to the history log. Failing to
// record never fails the answer.
func (s *QueryService) recordQuery(ctx context.Context, req domain.QueryRequest, answer *domain.Answer) {
	chunkIDs := make([]string, len(answer.Sources))
	for i, src := range answer.Sources {
		chunkIDs[i] = src.ChunkID
	}
	rec := &domain.QueryRecord{
		ID:        uuid.NewString(),
		Owner:     req.Owner,
		Query:     req.Query,
		Answer:    answer.Text,
		ChunkIDs:  chunkIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.docStore.SaveQueryRecord(ctx, rec); err != nil {
		logger.Warn("Could not record query history: %v", err)
	}
}
