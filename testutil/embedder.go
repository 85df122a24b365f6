package testutil

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/hupe1980/vecrow/model"
)

// TextEmbedder is a deterministic embedder for tests: equal texts always map
// to equal vectors, distinct texts to unrelated ones.
type TextEmbedder struct {
	Dimensions int
}

// NewTextEmbedder creates a TextEmbedder of the given dimensionality.
func NewTextEmbedder(dims int) *TextEmbedder {
	return &TextEmbedder{Dimensions: dims}
}

// ModelID returns a fixed model name.
func (e *TextEmbedder) ModelID() string { return "text-hash" }

// Dims returns the vector dimensionality.
func (e *TextEmbedder) Dims() int { return e.Dimensions }

// Embed returns a vector seeded by the FNV-1a hash of text.
func (e *TextEmbedder) Embed(_ context.Context, text string) model.Vector {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	v := make(model.Vector, e.Dimensions)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}
