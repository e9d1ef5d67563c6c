// Package embed generates vector embeddings for chunk text and search
// queries. The remote Cohere provider is used when an API key is configured;
// otherwise the deterministic hash-based embedder keeps the service fully
// functional offline.
package embed

import (
	"context"
	"math"
	"time"
)

// InputType tells the provider how the text will be used. Asymmetric
// embedding models produce different vectors for stored documents and
// queries.
type InputType string

const (
	// InputSearchDocument marks text that is being stored for retrieval.
	InputSearchDocument InputType = "search_document"

	// InputSearchQuery marks text that is being searched with.
	InputSearchQuery InputType = "search_query"
)

// Common embedding constants
const (
	// DefaultBatchSize is the default number of texts per provider request
	DefaultBatchSize = 96

	// DefaultTimeout is the default timeout for a single provider request
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of attempts per batch
	DefaultMaxRetries = 3

	// StaticDimensions is the embedding dimension of the static embedder
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string, input InputType) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error)

	// Dimensions returns the embedding dimension, or 0 if not yet known
	Dimensions() int

	// ModelName returns the model identifier
	ModelName() string

	// Close releases resources
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // Return as-is if zero vector
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
