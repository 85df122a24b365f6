// Package testutil provides helpers for tests.
//
// # Random Vectors
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(100, 16)
//
// # Ground Truth
//
//	exact := testutil.ExactCosineTopK(vecs, query, k)
//	recall := testutil.ComputeRecall(exact, approx)
//
// # Phrases
//
// Phrases and QueryPhrase form a tiny fixed corpus for end-to-end tests of
// the ingestion and retrieval path.
package testutil
