package distance

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"ZeroLeft", []float32{0, 0}, []float32{1, 1}, 0},
		{"ZeroRight", []float32{1, 1}, []float32{0, 0}, 0},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosine_Range(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 1000 {
		a := make([]float32, 16)
		b := make([]float32, 16)
		for i := range a {
			a[i] = rng.Float32()*2 - 1
			b[i] = rng.Float32()*2 - 1
		}
		sim := Cosine(a, b)
		require.False(t, math.IsNaN(float64(sim)))
		require.GreaterOrEqual(t, sim, float32(-1))
		require.LessOrEqual(t, sim, float32(1))
		require.Equal(t, sim, Cosine(b, a))
	}
}
