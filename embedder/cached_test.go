package embedder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached(t *testing.T) {
	ctx := context.Background()
	c := NewCached(NewRandom("dummy", 4, seed(3)), 2)

	a := c.Embed(ctx, "alpha")
	assert.Equal(t, a, c.Embed(ctx, "alpha"))
	assert.NotEqual(t, a, c.Embed(ctx, "beta"))

	// Mutating a returned vector does not leak into the cache.
	a[0] = 42
	assert.NotEqual(t, float32(42), c.Embed(ctx, "alpha")[0])

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, "dummy", c.ModelID())
	assert.Equal(t, 4, c.Dims())
}

func TestCached_SkipsZeroVectors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCached(NewHTTP(Endpoint{BaseURL: srv.URL, Path: "/embed"}, 3), 8)

	require.Equal(t, Zero(3), c.Embed(context.Background(), "x"))
	require.Equal(t, Zero(3), c.Embed(context.Background(), "x"))
	assert.Equal(t, int32(2), calls.Load())
}
