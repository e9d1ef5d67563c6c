package index

import (
	"sort"

	"github.com/vexhq/vexdb/internal/store"
)

// LinearIndex is the exact brute-force index. Vectors are L2-normalized at
// build time so a search is one dot product per row.
type LinearIndex struct {
	refs    []ChunkRef
	vectors [][]float32 // unit length
	dims    int
}

var _ Index = (*LinearIndex)(nil)

// NewLinearIndex builds a brute-force index over the given chunks.
// refs and vectors must be the same length.
func NewLinearIndex(refs []ChunkRef, vectors [][]float32) *LinearIndex {
	normalized := make([][]float32, len(vectors))
	dims := 0
	for i, v := range vectors {
		normalized[i] = normalize(v)
		if len(v) > dims {
			dims = len(v)
		}
	}
	return &LinearIndex{refs: refs, vectors: normalized, dims: dims}
}

// Kind identifies the index implementation.
func (ix *LinearIndex) Kind() store.IndexerKind {
	return store.IndexerBruteForce
}

// Size returns the number of indexed vectors.
func (ix *LinearIndex) Size() int {
	return len(ix.refs)
}

// Params describes build parameters for status reporting.
func (ix *LinearIndex) Params() map[string]any {
	return map[string]any{
		"dimensions": ix.dims,
	}
}

// Search scores every row by cosine similarity and returns the top k.
// Ties break on insertion order for deterministic results.
func (ix *LinearIndex) Search(query []float32, k int) []Result {
	if k <= 0 || len(ix.refs) == 0 {
		return []Result{}
	}

	q := normalize(query)
	type scored struct {
		idx   int
		score float32
	}
	scores := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		var dot float64
		n := len(v)
		if len(q) < n {
			n = len(q)
		}
		for j := 0; j < n; j++ {
			dot += float64(v[j]) * float64(q[j])
		}
		scores[i] = scored{idx: i, score: float32(dot)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].idx < scores[j].idx
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]Result, k)
	for i := 0; i < k; i++ {
		results[i] = Result{Ref: ix.refs[scores[i].idx], Score: scores[i].score}
	}
	return results
}
