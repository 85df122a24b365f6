// Package distance provides cosine similarity, the single metric shared by
// the flat and graph indexes.
package distance
