package testutil

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecrow/model"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	require.Len(t, v, 8)
	assert.Len(t, v[0], 32)
	for _, vec := range v {
		for _, x := range vec {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestUniformRangeVectors(t *testing.T) {
	rng := NewRNG(4711)

	for _, vec := range rng.UniformRangeVectors(8, 32) {
		for _, x := range vec {
			assert.GreaterOrEqual(t, x, float32(-1))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	for _, vec := range rng.UnitVectors(8, 32) {
		var norm float64
		for _, x := range vec {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	}
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(7)
	a := rng.Float32()
	_ = rng.Intn(10)

	rng.Reset()
	assert.Equal(t, a, rng.Float32())
	assert.Equal(t, int64(7), rng.Seed())

	buf := make([]float32, 4)
	rng.FillUniform(buf)
	assert.NotEqual(t, []float32{0, 0, 0, 0}, buf)
}

func TestExactCosineTopK(t *testing.T) {
	vecs := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	hits := ExactCosineTopK(vecs, []float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(0), hits[0].ID)
	assert.Equal(t, uint64(2), hits[1].ID)
}

func TestComputeRecall(t *testing.T) {
	truth := []model.Hit{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
	assert.Equal(t, 0.5, ComputeRecall(truth, []model.Hit{{ID: 1}, {ID: 9}, {ID: 3}, {ID: 8}}))
}

func TestTextEmbedder(t *testing.T) {
	emb := NewTextEmbedder(8)
	ctx := context.Background()

	a := emb.Embed(ctx, "alpha")
	assert.Len(t, a, 8)
	assert.Equal(t, a, emb.Embed(ctx, "alpha"))
	assert.NotEqual(t, a, emb.Embed(ctx, "beta"))
	assert.Equal(t, 8, emb.Dims())
	assert.NotEmpty(t, emb.ModelID())
}
