// Package flat provides an exact, brute-force cosine index.
package flat

import (
	"slices"
	"sync"

	"github.com/hupe1980/vecrow/distance"
	"github.com/hupe1980/vecrow/index"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

type entry struct {
	id  uint64
	vec []float32
}

// Flat stores (id, vector) entries in insertion order and scores every one of
// them on each query.
type Flat struct {
	mu      sync.RWMutex
	dims    int
	entries []entry
}

// New creates a flat index for vectors of the given dimensionality.
func New(dims int) *Flat {
	return &Flat{dims: dims}
}

func (*Flat) Name() string { return "Flat" }

// Dims returns the vector dimensionality.
func (f *Flat) Dims() int { return f.dims }

// Len returns the number of stored entries.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Add appends vec under id. Entries are never replaced or deduplicated.
func (f *Flat) Add(id uint64, vec []float32) error {
	if err := index.ValidateDims(f.dims, vec); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, entry{id: id, vec: slices.Clone(vec)})
	return nil
}

// CosineTopK returns the k entries most similar to q, sorted by descending
// cosine similarity. Ties keep insertion order.
func (f *Flat) CosineTopK(q []float32, k int) ([]index.Hit, error) {
	if err := index.ValidateQuery(f.dims, q, k); err != nil {
		return nil, err
	}

	f.mu.RLock()
	hits := make([]index.Hit, len(f.entries))
	for i, e := range f.entries {
		hits[i] = index.Hit{ID: e.id, Score: distance.Cosine(q, e.vec)}
	}
	f.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b index.Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// TopK is CosineTopK.
func (f *Flat) TopK(q []float32, k int) ([]index.Hit, error) {
	return f.CosineTopK(q, k)
}
