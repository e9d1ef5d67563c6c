package index

import (
	"sort"

	"github.com/vexhq/vexdb/internal/store"
)

// BallTreeIndex is an exact euclidean-metric index. Points are partitioned
// into nested hyperspheres; a search walks the tree and prunes any ball that
// cannot hold a closer point than the current k-th best.
type BallTreeIndex struct {
	refs     []ChunkRef
	points   [][]float32
	root     *ballNode
	leafSize int
}

// ballNode is one ball. Leaves hold point indices; internal nodes hold the
// two child balls.
type ballNode struct {
	center  []float32
	radius  float32
	indices []int // leaf only
	left    *ballNode
	right   *ballNode
}

var _ Index = (*BallTreeIndex)(nil)

// NewBallTreeIndex builds a ball tree over the given chunks. leafSize bounds
// the number of points per leaf; values outside [MinLeafSize, MaxLeafSize]
// are clamped by the caller before construction.
func NewBallTreeIndex(refs []ChunkRef, vectors [][]float32, leafSize int) *BallTreeIndex {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}

	ix := &BallTreeIndex{refs: refs, points: vectors, leafSize: leafSize}
	if len(vectors) > 0 {
		indices := make([]int, len(vectors))
		for i := range indices {
			indices[i] = i
		}
		ix.root = ix.build(indices)
	}
	return ix
}

// build constructs the subtree over the given point indices.
func (ix *BallTreeIndex) build(indices []int) *ballNode {
	node := &ballNode{
		center: ix.centroid(indices),
	}
	node.radius = ix.maxDistance(node.center, indices)

	splitDim, maxVariance := ix.bestSplitDim(indices)

	// A small or degenerate ball (all points identical) becomes a leaf.
	if len(indices) <= ix.leafSize || maxVariance == 0 {
		node.indices = indices
		return node
	}

	// Partition at the median of the highest-variance dimension. Each side
	// keeps at least one point so the recursion always terminates.
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(a, b int) bool {
		return ix.points[sorted[a]][splitDim] < ix.points[sorted[b]][splitDim]
	})
	mid := len(sorted) / 2
	if mid == 0 {
		mid = 1
	}
	if mid == len(sorted) {
		mid = len(sorted) - 1
	}

	node.left = ix.build(sorted[:mid])
	node.right = ix.build(sorted[mid:])
	return node
}

// centroid computes the mean of the given points.
func (ix *BallTreeIndex) centroid(indices []int) []float32 {
	dims := len(ix.points[indices[0]])
	sums := make([]float64, dims)
	for _, idx := range indices {
		for d, v := range ix.points[idx] {
			sums[d] += float64(v)
		}
	}
	center := make([]float32, dims)
	for d := range sums {
		center[d] = float32(sums[d] / float64(len(indices)))
	}
	return center
}

// maxDistance returns the largest distance from center to any point.
func (ix *BallTreeIndex) maxDistance(center []float32, indices []int) float32 {
	var max float32
	for _, idx := range indices {
		if d := euclidean(center, ix.points[idx]); d > max {
			max = d
		}
	}
	return max
}

// bestSplitDim returns the dimension with the highest variance.
func (ix *BallTreeIndex) bestSplitDim(indices []int) (int, float64) {
	dims := len(ix.points[indices[0]])
	n := float64(len(indices))

	bestDim := 0
	bestVariance := 0.0
	for d := 0; d < dims; d++ {
		var sum, sumSq float64
		for _, idx := range indices {
			v := float64(ix.points[idx][d])
			sum += v
			sumSq += v * v
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance > bestVariance {
			bestVariance = variance
			bestDim = d
		}
	}
	return bestDim, bestVariance
}

// Kind identifies the index implementation.
func (ix *BallTreeIndex) Kind() store.IndexerKind {
	return store.IndexerBallTree
}

// Size returns the number of indexed vectors.
func (ix *BallTreeIndex) Size() int {
	return len(ix.refs)
}

// Params describes build parameters for status reporting.
func (ix *BallTreeIndex) Params() map[string]any {
	return map[string]any{
		"leaf_size": ix.leafSize,
	}
}

// neighborSet tracks the k nearest points seen so far, worst last.
type neighborSet struct {
	k    int
	idx  []int
	dist []float32
}

func (ns *neighborSet) worst() float32 {
	if len(ns.dist) < ns.k {
		return float32(1<<31 - 1)
	}
	return ns.dist[len(ns.dist)-1]
}

func (ns *neighborSet) add(idx int, dist float32) {
	pos := sort.Search(len(ns.dist), func(i int) bool { return ns.dist[i] > dist })
	ns.idx = append(ns.idx, 0)
	ns.dist = append(ns.dist, 0)
	copy(ns.idx[pos+1:], ns.idx[pos:])
	copy(ns.dist[pos+1:], ns.dist[pos:])
	ns.idx[pos] = idx
	ns.dist[pos] = dist
	if len(ns.dist) > ns.k {
		ns.idx = ns.idx[:ns.k]
		ns.dist = ns.dist[:ns.k]
	}
}

// Search returns the k exact nearest neighbors by euclidean distance,
// scored as 1/(1+distance).
func (ix *BallTreeIndex) Search(query []float32, k int) []Result {
	if k <= 0 || ix.root == nil {
		return []Result{}
	}

	ns := &neighborSet{k: k}
	ix.search(ix.root, query, ns)

	results := make([]Result, len(ns.idx))
	for i, idx := range ns.idx {
		results[i] = Result{
			Ref:   ix.refs[idx],
			Score: 1 / (1 + ns.dist[i]),
		}
	}
	return results
}

// search recursively descends into the closer child first and prunes any
// ball that cannot beat the current worst neighbor.
func (ix *BallTreeIndex) search(node *ballNode, query []float32, ns *neighborSet) {
	if node.indices != nil || (node.left == nil && node.right == nil) {
		for _, idx := range node.indices {
			if d := euclidean(query, ix.points[idx]); d < ns.worst() {
				ns.add(idx, d)
			}
		}
		return
	}

	leftDist := euclidean(query, node.left.center)
	rightDist := euclidean(query, node.right.center)

	first, second := node.left, node.right
	firstDist, secondDist := leftDist, rightDist
	if rightDist < leftDist {
		first, second = second, first
		firstDist, secondDist = secondDist, firstDist
	}

	if firstDist-first.radius <= ns.worst() {
		ix.search(first, query, ns)
	}
	if secondDist-second.radius <= ns.worst() {
		ix.search(second, query, ns)
	}
}
