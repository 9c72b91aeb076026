// Package tei provides a reranking adapter for cross-encoder services
// speaking the text-embeddings-inference /rerank protocol.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Ensure RerankService implements the interface.
var _ driven.RerankService = (*RerankService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultModel   = "cross-encoder"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the reranking service.
type Config struct {
	// BaseURL is the rerank service base URL (default: http://localhost:8080).
	BaseURL string

	// Model names the cross-encoder, for logging only. The service
	// decides which model it serves.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// RerankService scores query/passage pairs with a cross-encoder.
type RerankService struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the /rerank request format.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankResult is one scored passage. Results may come back in score
// order, so the index is what maps a score to its input.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewRerankService creates a new reranking service client.
func NewRerankService(cfg Config) *RerankService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RerankService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Rerank scores each text against the query. The returned slice is
// index-aligned with texts.
func (s *RerankService) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrRerankService, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrRerankService, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: rerank: %v", domain.ErrRerankService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: rerank status %d: %s", domain.ErrRerankService, resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRerankService, err)
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("%w: rerank returned index %d out of range", domain.ErrRerankService, r.Index)
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: rerank returned no score for text %d", domain.ErrRerankService, i)
		}
	}
	return scores, nil
}

// ModelName returns the configured cross-encoder name.
func (s *RerankService) ModelName() string {
	return s.model
}

// Ping checks the service health endpoint.
func (s *RerankService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("rerank: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("rerank: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rerank: service returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *RerankService) Close() error {
	return nil
}
