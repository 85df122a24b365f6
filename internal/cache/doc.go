// Package cache holds the generic LRU used to memoize embeddings by input
// text. Capacity is counted in entries or in a caller-supplied cost.
package cache
