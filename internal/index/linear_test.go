package index

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRefs(n int) []ChunkRef {
	refs := make([]ChunkRef, n)
	for i := range refs {
		refs[i] = ChunkRef{ChunkID: uuid.New(), DocumentID: uuid.New()}
	}
	return refs
}

func TestLinearIndex_RanksByCosine(t *testing.T) {
	refs := makeRefs(3)
	vectors := [][]float32{
		{1, 0},    // aligned with query
		{0, 1},    // orthogonal
		{-1, 0},   // opposite
	}
	ix := NewLinearIndex(refs, vectors)

	results := ix.Search([]float32{1, 0}, 3)
	require.Len(t, results, 3)

	assert.Equal(t, refs[0].ChunkID, results[0].Ref.ChunkID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.InDelta(t, 0.0, float64(results[1].Score), 1e-5)
	assert.InDelta(t, -1.0, float64(results[2].Score), 1e-5)
}

func TestLinearIndex_MagnitudeDoesNotMatter(t *testing.T) {
	refs := makeRefs(2)
	vectors := [][]float32{
		{100, 0}, // large magnitude, same direction
		{0.9, 0.1},
	}
	ix := NewLinearIndex(refs, vectors)

	results := ix.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, refs[0].ChunkID, results[0].Ref.ChunkID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
}

func TestLinearIndex_TopKClamped(t *testing.T) {
	ix := NewLinearIndex(makeRefs(2), [][]float32{{1, 0}, {0, 1}})

	assert.Len(t, ix.Search([]float32{1, 0}, 10), 2)
	assert.Empty(t, ix.Search([]float32{1, 0}, 0))
}

func TestLinearIndex_Empty(t *testing.T) {
	ix := NewLinearIndex(nil, nil)
	assert.Empty(t, ix.Search([]float32{1, 0}, 5))
	assert.Zero(t, ix.Size())
}

func TestLinearIndex_ZeroVectorScoresZero(t *testing.T) {
	refs := makeRefs(2)
	ix := NewLinearIndex(refs, [][]float32{{0, 0}, {1, 0}})

	results := ix.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, refs[1].ChunkID, results[0].Ref.ChunkID)
	assert.Zero(t, results[1].Score)
}

func TestLinearIndex_DeterministicTieBreak(t *testing.T) {
	refs := makeRefs(3)
	// Two identical vectors tie exactly; insertion order must win
	ix := NewLinearIndex(refs, [][]float32{{1, 0}, {1, 0}, {0, 1}})

	results := ix.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, refs[0].ChunkID, results[0].Ref.ChunkID)
	assert.Equal(t, refs[1].ChunkID, results[1].Ref.ChunkID)
}
