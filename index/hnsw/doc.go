// Package hnsw provides an approximate cosine index over a degree-bounded
// proximity graph, built incrementally in the style of HNSW.
//
// # Construction
//
// Every node samples a level by repeated coin flips (capped at MaxLevel). The
// level is recorded but routing uses a single layer: a new node hill-climbs
// from the entry point towards its most similar region, links to the best M
// of the local optimum and its neighbors, and any neighbor pushed over M
// edges prunes itself back to its own M most similar neighbors.
//
// # Search
//
// TopK walks the graph depth-first from the entry point, pushing up to EF
// randomly shuffled neighbors per visited node. There is no visitation cap, so
// on small or densely connected graphs a query scores every reachable node.
// Results are not deterministic unless RandomSeed is set.
package hnsw
