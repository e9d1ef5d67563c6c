package index

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexhq/vexdb/internal/store"
)

func TestHNSW_FindsExactMatch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vectors := randomVectors(rng, 100, 16)
	refs := makeRefs(100)
	ix := NewHNSWIndex(refs, vectors, 0, 0)

	// Searching with an indexed vector must return it first with score ~1
	results := ix.Search(vectors[17], 5)
	require.NotEmpty(t, results)
	assert.Equal(t, refs[17].ChunkID, results[0].Ref.ChunkID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-4)
}

func TestHNSW_ScoresWithinCosineRange(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	vectors := randomVectors(rng, 50, 8)
	ix := NewHNSWIndex(makeRefs(50), vectors, 0, 0)

	for _, r := range ix.Search(randomVectors(rng, 1, 8)[0], 10) {
		assert.GreaterOrEqual(t, float64(r.Score), -1.0001)
		assert.LessOrEqual(t, float64(r.Score), 1.0001)
	}
}

func TestHNSW_Empty(t *testing.T) {
	ix := NewHNSWIndex(nil, nil, 0, 0)
	assert.Empty(t, ix.Search([]float32{1, 0}, 5))
	assert.Zero(t, ix.Size())
	assert.Equal(t, store.IndexerHNSW, ix.Kind())
}

func TestHNSW_ParamsReportDefaults(t *testing.T) {
	ix := NewHNSWIndex(nil, nil, 0, 0)
	params := ix.Params()
	assert.Equal(t, DefaultHNSWM, params["m"])
	assert.Equal(t, DefaultHNSWEfSearch, params["ef_search"])

	tuned := NewHNSWIndex(nil, nil, 32, 100)
	assert.Equal(t, 32, tuned.Params()["m"])
	assert.Equal(t, 100, tuned.Params()["ef_search"])
}
