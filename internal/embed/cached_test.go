package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps the static embedder and counts provider calls.
type countingEmbedder struct {
	*StaticEmbedder
	calls atomic.Int32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, input InputType) ([]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.Embed(ctx, text, input)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	c.calls.Add(int32(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts, input)
}

func TestCachedEmbedder_HitAvoidsProviderCall(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hello", InputSearchQuery)
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "hello", InputSearchQuery)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedEmbedder_InputTypeIsPartOfKey(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "hello", InputSearchDocument)
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "hello", InputSearchQuery)
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.calls.Load(), "different input types must not share cache entries")
}

func TestCachedEmbedder_BatchMixesHitsAndMisses(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "cached", InputSearchDocument)
	require.NoError(t, err)
	inner.calls.Store(0)

	vecs, err := cached.EmbedBatch(ctx, []string{"cached", "fresh"}, InputSearchDocument)
	require.NoError(t, err)

	assert.Len(t, vecs, 2)
	assert.Equal(t, int32(1), inner.calls.Load(), "only the uncached text should reach the provider")
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	inner := NewStaticEmbedder()
	cached := NewCachedEmbedder(inner, 0)

	assert.Equal(t, StaticDimensions, cached.Dimensions())
	assert.Equal(t, "static", cached.ModelName())
	assert.Same(t, inner, cached.Inner())
	assert.NoError(t, cached.Close())
}
