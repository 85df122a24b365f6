// Package embedder defines the text embedding capability consumed by the
// engine and the planner, together with a pseudo-random stand-in and an
// HTTP-backed implementation.
package embedder

import (
	"context"

	"github.com/hupe1980/vecrow/model"
)

// Embedder turns text into a vector of fixed dimensionality.
//
// Embed never fails: implementations that depend on a remote service return
// a zero vector when the service is unavailable.
type Embedder interface {
	// ModelID identifies the model producing the vectors.
	ModelID() string

	// Dims returns the length of every vector returned by Embed.
	Dims() int

	// Embed returns the embedding of text.
	Embed(ctx context.Context, text string) model.Vector
}

// Zero returns a zero vector of the given dimensionality.
func Zero(dims int) model.Vector {
	return make(model.Vector, dims)
}
