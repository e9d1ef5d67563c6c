package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

// DefaultCohereURL is the Cohere embed API endpoint.
const DefaultCohereURL = "https://api.cohere.ai/v1/embed"

// DefaultCohereModel is the default embedding model.
const DefaultCohereModel = "embed-english-v3.0"

// CohereConfig configures the Cohere embedder.
type CohereConfig struct {
	APIKey     string
	URL        string
	Model      string
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
}

// CohereEmbedder generates embeddings using the Cohere HTTP API.
type CohereEmbedder struct {
	client *http.Client
	config CohereConfig

	mu     sync.RWMutex
	closed bool
	dims   int // detected from the first response
}

// Verify interface implementation at compile time
var _ Embedder = (*CohereEmbedder)(nil)

// NewCohereEmbedder creates a new Cohere embedder.
func NewCohereEmbedder(cfg CohereConfig) (*CohereEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere API key is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultCohereURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultCohereModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	// No static client timeout; each request carries its own timeout context
	// so the caller's context cancellation is honored.
	return &CohereEmbedder{
		client: &http.Client{},
		config: cfg,
	}, nil
}

// cohereRequest is the embed API request body.
type cohereRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	Truncate  string   `json:"truncate"`
	InputType string   `json:"input_type"`
}

// cohereResponse is the embed API response body.
type cohereResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

// Embed generates an embedding for a single text.
func (e *CohereEmbedder) Embed(ctx context.Context, text string, input InputType) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text}, input)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, verrors.Upstream("embedding provider returned no embedding", nil)
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting the work into
// provider-sized batches. Empty texts get zero vectors without an API call.
func (e *CohereEmbedder) EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.Dimensions())
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}

	for start := 0; start < len(nonEmpty); start += e.config.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + e.config.BatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}

		batch := nonEmpty[start:end]
		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		embeddings, err := e.doEmbedWithRetry(ctx, batchTexts, input)
		if err != nil {
			return nil, err
		}
		if len(embeddings) != len(batch) {
			return nil, verrors.Upstream(
				fmt.Sprintf("embedding provider returned %d embeddings for %d texts", len(embeddings), len(batch)), nil)
		}
		for i, emb := range embeddings {
			results[batch[i].idx] = emb
		}
	}

	return results, nil
}

// doEmbedWithRetry performs embedding with retry and exponential backoff.
func (e *CohereEmbedder) doEmbedWithRetry(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms * 2^attempt
			backoff := time.Duration(100<<attempt) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			slog.Debug("retrying embedding request",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", e.config.MaxRetries),
				slog.Int("texts_count", len(texts)))
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		embeddings, err := e.doEmbed(timeoutCtx, texts, input)
		cancel()

		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, verrors.Upstream(
		fmt.Sprintf("embedding failed after %d attempts", e.config.MaxRetries), lastErr)
}

// doEmbed performs a single embed API request.
func (e *CohereEmbedder) doEmbed(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	body, err := json.Marshal(cohereRequest{
		Texts:     texts,
		Model:     e.config.Model,
		Truncate:  "END",
		InputType: string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach embedding provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}

	e.recordDimensions(len(embeddings[0]))
	return embeddings, nil
}

// recordDimensions remembers the vector size seen in the first response.
func (e *CohereEmbedder) recordDimensions(dims int) {
	e.mu.Lock()
	if e.dims == 0 {
		e.dims = dims
	}
	e.mu.Unlock()
}

// Dimensions returns the embedding dimension, or 0 before the first call.
func (e *CohereEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier.
func (e *CohereEmbedder) ModelName() string {
	return e.config.Model
}

// Close releases resources.
func (e *CohereEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}
