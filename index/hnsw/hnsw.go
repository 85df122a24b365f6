package hnsw

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/vecrow/distance"
	"github.com/hupe1980/vecrow/index"
)

// Compile-time check to ensure HNSW satisfies the index interface.
var _ index.Index = (*HNSW)(nil)

const (
	// DefaultM is the default maximum number of neighbors per node.
	DefaultM = 8

	// DefaultEF is the default number of neighbors expanded per visited node.
	DefaultEF = 200

	// MaxLevel caps the sampled node level.
	MaxLevel = 5

	minimumM = 1
)

// Options contains configuration options for the graph index.
type Options struct {
	// Dimension is the fixed vector dimensionality. It must be > 0.
	Dimension int

	// M is the maximum number of neighbors per node.
	M int

	// EF is the maximum number of neighbors pushed per visited node during search.
	EF int

	// RandomSeed makes level sampling and search order reproducible.
	RandomSeed *int64
}

// DefaultOptions contains the default configuration options for the graph index.
var DefaultOptions = Options{
	Dimension: 0,
	M:         DefaultM,
	EF:        DefaultEF,
}

type node struct {
	id        uint64
	vec       []float32
	level     int
	neighbors []int // positions in HNSW.nodes
}

// HNSW is a single-layer navigable graph index.
type HNSW struct {
	mu    sync.RWMutex
	opts  Options
	nodes []*node
	entry int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a new graph index.
func New(optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidDimension, opts.Dimension)
	}

	if opts.M < minimumM {
		opts.M = minimumM
	}

	if opts.EF < 1 {
		opts.EF = 1
	}

	var rng *rand.Rand
	if opts.RandomSeed != nil {
		rng = rand.New(rand.NewSource(*opts.RandomSeed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &HNSW{opts: opts, rng: rng}, nil
}

func (*HNSW) Name() string { return "HNSW" }

// Dims returns the vector dimensionality.
func (h *HNSW) Dims() int { return h.opts.Dimension }

// Len returns the number of nodes.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// Degree returns the largest neighbor count among nodes added under id.
func (h *HNSW) Degree(id uint64) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	degree, found := 0, false
	for _, n := range h.nodes {
		if n.id == id {
			degree, found = max(degree, len(n.neighbors)), true
		}
	}
	return degree, found
}

// MaxDegree returns the largest neighbor count of any node.
func (h *HNSW) MaxDegree() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	degree := 0
	for _, n := range h.nodes {
		degree = max(degree, len(n.neighbors))
	}
	return degree
}

// Level returns the sampled level of the first node added under id.
func (h *HNSW) Level(id uint64) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, n := range h.nodes {
		if n.id == id {
			return n.level, true
		}
	}
	return 0, false
}

func (h *HNSW) randomLevel() int {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()

	level := 0
	for level < MaxLevel && h.rng.Float64() < 0.5 {
		level++
	}
	return level
}

func (h *HNSW) shuffle(s []int) {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()

	h.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// Add inserts vec as a new node under id. Adding an existing id creates a
// second node.
func (h *HNSW) Add(id uint64, vec []float32) error {
	if err := index.ValidateDims(h.opts.Dimension, vec); err != nil {
		return err
	}

	n := &node{id: id, vec: slices.Clone(vec), level: h.randomLevel()}

	h.mu.Lock()
	defer h.mu.Unlock()

	pos := len(h.nodes)
	h.nodes = append(h.nodes, n)

	if pos == 0 {
		h.entry = 0
		return nil
	}

	cur := h.climb(vec)

	candidates := append(slices.Clone(h.nodes[cur].neighbors), cur)
	h.sortBySimilarity(candidates, vec)
	if len(candidates) > h.opts.M {
		candidates = candidates[:h.opts.M]
	}

	n.neighbors = candidates
	for _, c := range candidates {
		nb := h.nodes[c]
		nb.neighbors = append(nb.neighbors, pos)
		if len(nb.neighbors) > h.opts.M {
			h.sortBySimilarity(nb.neighbors, nb.vec)
			nb.neighbors = nb.neighbors[:h.opts.M]
		}
	}

	return nil
}

// climb moves from the entry point to the most similar neighbor as long as it
// is strictly more similar to vec than the current node.
func (h *HNSW) climb(vec []float32) int {
	cur := h.entry
	curSim := distance.Cosine(vec, h.nodes[cur].vec)

	for {
		next, nextSim := cur, curSim
		for _, nb := range h.nodes[cur].neighbors {
			if sim := distance.Cosine(vec, h.nodes[nb].vec); sim > nextSim {
				next, nextSim = nb, sim
			}
		}
		if next == cur {
			return cur
		}
		cur, curSim = next, nextSim
	}
}

// sortBySimilarity sorts node positions by descending similarity to vec.
func (h *HNSW) sortBySimilarity(positions []int, vec []float32) {
	sims := make(map[int]float32, len(positions))
	for _, p := range positions {
		sims[p] = distance.Cosine(vec, h.nodes[p].vec)
	}
	slices.SortStableFunc(positions, func(a, b int) int {
		switch {
		case sims[a] > sims[b]:
			return -1
		case sims[a] < sims[b]:
			return 1
		default:
			return 0
		}
	})
}

// TopK returns up to k of the visited nodes most similar to q.
func (h *HNSW) TopK(q []float32, k int) ([]index.Hit, error) {
	if err := index.ValidateQuery(h.opts.Dimension, q, k); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 {
		return []index.Hit{}, nil
	}

	visited := make([]bool, len(h.nodes))
	frontier := []int{h.entry}
	var hits []index.Hit

	for len(frontier) > 0 {
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if visited[cur] {
			continue
		}
		visited[cur] = true

		n := h.nodes[cur]
		hits = append(hits, index.Hit{ID: n.id, Score: distance.Cosine(q, n.vec)})

		neighbors := slices.Clone(n.neighbors)
		h.shuffle(neighbors)
		if len(neighbors) > h.opts.EF {
			neighbors = neighbors[:h.opts.EF]
		}
		for _, nb := range neighbors {
			if !visited[nb] {
				frontier = append(frontier, nb)
			}
		}
	}

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
