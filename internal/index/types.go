// Package index builds and queries per-library vector indexes. Three
// implementations are provided: an exact brute-force cosine scan, an exact
// euclidean ball tree, and an approximate HNSW graph. Built indexes are
// immutable; a library mutation invalidates the whole index and the next
// build constructs a fresh one.
package index

import (
	"math"

	"github.com/google/uuid"

	"github.com/vexhq/vexdb/internal/store"
)

// Ball tree leaf size bounds. Values outside this range are rejected.
const (
	MinLeafSize     = 10
	MaxLeafSize     = 1000
	DefaultLeafSize = 40
)

// HNSW graph parameter bounds. M controls graph connectivity, EfSearch the
// size of the candidate set during queries.
const (
	MinHNSWM     = 4
	MaxHNSWM     = 64
	DefaultHNSWM = 16

	MinHNSWEfSearch     = 10
	MaxHNSWEfSearch     = 1000
	DefaultHNSWEfSearch = 20
)

// ChunkRef carries the chunk fields needed to render a search result without
// going back to the store. Document data is captured at build time.
type ChunkRef struct {
	ChunkID      uuid.UUID
	DocumentID   uuid.UUID
	DocumentName string
	Text         string
	Metadata     map[string]any
}

// Result is one search hit. Score semantics depend on the index kind:
// cosine similarity in [-1, 1] for brute-force and HNSW, 1/(1+distance)
// in (0, 1] for the ball tree.
type Result struct {
	Ref   ChunkRef
	Score float32
}

// Index is a built, read-only vector index over one library's chunks.
type Index interface {
	// Kind identifies the index implementation.
	Kind() store.IndexerKind

	// Size returns the number of indexed vectors.
	Size() int

	// Params describes build parameters for status reporting.
	Params() map[string]any

	// Search returns up to k nearest chunks, best first.
	Search(query []float32, k int) []Result
}

// normalize returns v scaled to unit length. A zero vector is returned
// unchanged so cosine against it is simply zero.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / norm)
	}
	return out
}

// euclidean computes the L2 distance between two equal-length vectors.
func euclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
