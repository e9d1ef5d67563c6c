package index

import (
	"github.com/coder/hnsw"

	"github.com/vexhq/vexdb/internal/store"
)

// HNSWIndex is the approximate nearest-neighbor index backed by an HNSW
// graph with cosine distance. Vectors are normalized at build time.
type HNSWIndex struct {
	refs     []ChunkRef
	graph    *hnsw.Graph[int]
	m        int
	efSearch int
}

var _ Index = (*HNSWIndex)(nil)

// NewHNSWIndex builds an HNSW graph over the given chunks. Zero values for
// m and efSearch fall back to the package defaults.
func NewHNSWIndex(refs []ChunkRef, vectors [][]float32, m, efSearch int) *HNSWIndex {
	if m == 0 {
		m = DefaultHNSWM
	}
	if efSearch == 0 {
		efSearch = DefaultHNSWEfSearch
	}

	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance
	graph.M = m
	graph.EfSearch = efSearch
	graph.Ml = 0.25

	for i, v := range vectors {
		graph.Add(hnsw.MakeNode(i, normalize(v)))
	}
	return &HNSWIndex{refs: refs, graph: graph, m: m, efSearch: efSearch}
}

// Kind identifies the index implementation.
func (ix *HNSWIndex) Kind() store.IndexerKind {
	return store.IndexerHNSW
}

// Size returns the number of indexed vectors.
func (ix *HNSWIndex) Size() int {
	return len(ix.refs)
}

// Params describes build parameters for status reporting.
func (ix *HNSWIndex) Params() map[string]any {
	return map[string]any{
		"m":         ix.m,
		"ef_search": ix.efSearch,
	}
}

// Search returns up to k approximate nearest neighbors, scored as
// 1 - cosine distance, which is the cosine similarity in [-1, 1].
func (ix *HNSWIndex) Search(query []float32, k int) []Result {
	if k <= 0 || ix.graph.Len() == 0 {
		return []Result{}
	}

	q := normalize(query)
	nodes := ix.graph.Search(q, k)

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, Result{
			Ref:   ix.refs[node.Key],
			Score: 1 - ix.graph.Distance(q, node.Value),
		})
	}
	return results
}
