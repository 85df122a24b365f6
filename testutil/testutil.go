package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/vecrow/distance"
	"github.com/hupe1980/vecrow/model"
)

// Phrases is a fixed corpus of short texts.
var Phrases = []string{
	"quarterly revenue grew in the northern region",
	"the onboarding checklist for new engineers",
	"incident report for the payment gateway outage",
	"roadmap review with the platform team",
}

// QueryPhrase is a query that is not part of Phrases.
const QueryPhrase = "revenue report for the platform team"

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return r.rand.Float32() })
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return r.rand.Float32()*2 - 1 })
}

// UnitVectors generates L2-normalized random vectors.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vecs := r.vectors(num, dimensions, func() float32 { return float32(r.rand.NormFloat64()) })
	for _, v := range vecs {
		normalize(v)
	}
	return vecs
}

// vectors uses a single backing array.
func (r *RNG) vectors(num, dimensions int, next func() float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = next()
		}
		vectors[i] = vec
	}

	return vectors
}

func normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
}

// ExactCosineTopK returns the k most similar vectors by brute force.
// Ids are positions in vectors.
func ExactCosineTopK(vectors [][]float32, query []float32, k int) []model.Hit {
	hits := make([]model.Hit, len(vectors))
	for i, v := range vectors {
		hits[i] = model.Hit{ID: uint64(i), Score: distance.Cosine(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// ComputeRecall computes recall@k of approximate against ground truth.
func ComputeRecall(groundTruth, approximate []model.Hit) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truth := make(map[uint64]struct{}, k)
	for i := range k {
		truth[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, h := range approximate[:k] {
		if _, ok := truth[h.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
