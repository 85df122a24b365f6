package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hupe1980/vecrow/access"
	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/index"
)

// ErrUnknownSpace is returned when a statement names an unregistered space.
var ErrUnknownSpace = errors.New("planner: unknown space")

// Options configures a Planner.
type Options struct {
	// Access gates retrieval. Nil allows everything.
	Access access.Descriptor

	// Overfetch multiplies k for the candidate fetch.
	Overfetch int

	Logger *slog.Logger
}

// DefaultOptions contains the default planner configuration.
var DefaultOptions = Options{
	Overfetch: 2,
}

// Planner runs similarity queries with an embedder.
type Planner struct {
	emb    embedder.Embedder
	opts   Options
	logger *slog.Logger
}

// New creates a planner.
func New(emb embedder.Embedder, optFns ...func(o *Options)) *Planner {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Overfetch < 1 {
		opts.Overfetch = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Planner{emb: emb, opts: opts, logger: opts.Logger}
}

// WithAccess returns a copy of p that gates results with desc.
func (p *Planner) WithAccess(desc access.Descriptor) *Planner {
	c := *p
	c.opts.Access = desc
	return &c
}

// Access returns the descriptor, or nil.
func (p *Planner) Access() access.Descriptor {
	return p.opts.Access
}

// Similar returns the k most similar entries of idx to queryText.
func (p *Planner) Similar(ctx context.Context, idx index.Index, queryText string, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidK, k)
	}

	start := time.Now()
	q := p.emb.Embed(ctx, queryText)

	hits, err := idx.TopK(q, k*p.opts.Overfetch)
	if err != nil {
		return nil, err
	}

	hits = p.gate(hits, k)
	p.logger.Debug("similar", "index", idx.Name(), "k", k, "hits", len(hits), "duration", time.Since(start))
	return hits, nil
}

func (p *Planner) gate(hits []index.Hit, k int) []index.Hit {
	if !access.CanRetrieve(p.opts.Access) {
		return []index.Hit{}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SimilarAcross queries every index and merges the results.
func (p *Planner) SimilarAcross(ctx context.Context, idxs []index.Index, queryText string, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidK, k)
	}

	q := p.emb.Embed(ctx, queryText)

	lists := make([][]index.Hit, 0, len(idxs))
	for _, idx := range idxs {
		hits, err := idx.TopK(q, k*p.opts.Overfetch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", idx.Name(), err)
		}
		lists = append(lists, hits)
	}

	return p.gate(index.MergeHits(k*p.opts.Overfetch, lists...), k), nil
}

// Resolver maps space names to indexes.
type Resolver interface {
	Resolve(space string) (index.Index, bool)
	All() []index.Index
}

// Spaces is a Resolver backed by a map.
type Spaces map[string]index.Index

// Resolve returns the index registered under space.
func (s Spaces) Resolve(space string) (index.Index, bool) {
	idx, ok := s[space]
	return idx, ok
}

// Names returns the registered space names in sorted order.
func (s Spaces) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the indexes in name order.
func (s Spaces) All() []index.Index {
	names := s.Names()
	idxs := make([]index.Index, len(names))
	for i, name := range names {
		idxs[i] = s[name]
	}
	return idxs
}

// Execute parses input and runs it against the index its space resolves to.
func (p *Planner) Execute(ctx context.Context, resolver Resolver, input string) ([]index.Hit, error) {
	q, err := ParseSemanticQL(input)
	if err != nil {
		return nil, err
	}

	if q.Space == AllSpaces {
		return p.SimilarAcross(ctx, resolver.All(), q.Text, q.K)
	}

	idx, ok := resolver.Resolve(q.Space)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpace, q.Space)
	}

	return p.Similar(ctx, idx, q.Text, q.K)
}
