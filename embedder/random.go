package embedder

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/vecrow/model"
)

// Compile-time check to ensure Random satisfies the Embedder interface.
var _ Embedder = (*Random)(nil)

// Random is a stand-in embedder producing uniform pseudo-random components
// biased by the fractional part of the text length. Since the length is
// integral the bias is always 0, so vectors carry no information about the
// text. It is meant for tests and demos only.
type Random struct {
	model string
	dims  int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random embedder. A nil seed uses the current time.
func NewRandom(modelID string, dims int, seed *int64) *Random {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return &Random{
		model: modelID,
		dims:  dims,
		rng:   rand.New(rand.NewSource(s)),
	}
}

// ModelID returns the configured model name.
func (r *Random) ModelID() string { return r.model }

// Dims returns the vector dimensionality.
func (r *Random) Dims() int { return r.dims }

// Embed returns a vector with components in [0, 1) plus the length bias.
func (r *Random) Embed(_ context.Context, text string) model.Vector {
	length := float64(len(text))
	bias := float32(length - math.Trunc(length))

	r.mu.Lock()
	defer r.mu.Unlock()

	v := make(model.Vector, r.dims)
	for i := range v {
		v[i] = r.rng.Float32() + bias
	}
	return v
}
