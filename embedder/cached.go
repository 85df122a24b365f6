package embedder

import (
	"context"
	"slices"

	"github.com/hupe1980/vecrow/internal/cache"
	"github.com/hupe1980/vecrow/model"
)

// Compile-time check to ensure Cached satisfies the Embedder interface.
var _ Embedder = (*Cached)(nil)

// Cached memoizes an embedder by text. It only pays off for deterministic
// embedders; wrapping Random makes repeated texts map to the same vector.
type Cached struct {
	next  Embedder
	cache *cache.LRU[string, model.Vector]
}

// NewCached wraps next with an LRU of up to size texts.
func NewCached(next Embedder, size int) *Cached {
	return &Cached{
		next:  next,
		cache: cache.NewLRU[string, model.Vector](int64(size), nil),
	}
}

// ModelID returns the wrapped model name.
func (c *Cached) ModelID() string { return c.next.ModelID() }

// Dims returns the wrapped dimensionality.
func (c *Cached) Dims() int { return c.next.Dims() }

// Embed returns the cached vector of text or embeds and caches it. Zero
// vectors are not cached so a failed remote call is retried next time.
func (c *Cached) Embed(ctx context.Context, text string) model.Vector {
	if v, ok := c.cache.Get(text); ok {
		return slices.Clone(v)
	}

	v := c.next.Embed(ctx, text)
	if !isZero(v) {
		c.cache.Set(text, slices.Clone(v))
	}
	return v
}

// Stats returns cache hits and misses.
func (c *Cached) Stats() (hits, misses int64) {
	return c.cache.Stats()
}

func isZero(v model.Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
