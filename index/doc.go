// Package index provides the vector index interface shared by the flat and
// graph implementations.
//
// vecrow ships two index types:
//
//   - flat: exact cosine top-k over every stored vector
//   - hnsw: approximate top-k over a degree-bounded proximity graph
//
// # Index Selection
//
//   - Flat: small collections, exact results required
//   - HNSW: larger collections, approximate results acceptable
//
// # Identity
//
// Vectors are added under a caller-chosen uint64 id. Neither index
// deduplicates: adding the same id twice stores two entries, and a top-k
// query may return that id twice.
package index
