package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "supervised learning maps inputs to labels")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "supervised learning maps inputs to labels")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedDimensionAndNorm(t *testing.T) {
	e := NewEmbedder(0)
	require.Equal(t, DefaultDimension, e.Dimension())

	vec, err := e.Embed(context.Background(), "gradient descent minimizes the loss function")
	require.NoError(t, err)
	require.Len(t, vec, DefaultDimension)

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedNoTokensYieldsZeroVector(t *testing.T) {
	e := NewEmbedder(16)
	vec, err := e.Embed(context.Background(), "42 1337 --- !!!")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestSimilarTextsCloserThanUnrelated(t *testing.T) {
	e := NewEmbedder(256)
	ctx := context.Background()

	base, err := e.Embed(ctx, "neural networks learn layered representations of data")
	require.NoError(t, err)
	near, err := e.Embed(ctx, "neural networks learn representations")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "the restaurant serves excellent seafood pasta")
	require.NoError(t, err)

	assert.Greater(t, dot(base, near), dot(base, far))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
