// Package engine wires the storage and index layers into a single ingestion
// and read path.
//
// # Write Path
//
//	Insert: clock.Next → WAL append → MemTable upsert → embed text → index Add → enrich
//
// A WAL failure aborts the insert before the memtable is touched. Embedding
// runs after the memtable lock is released; its concurrency is bounded by the
// resource controller. Vectors are keyed by HashKey(row key), so re-inserting
// a key adds a second vector under the same id.
//
// # Recovery and Flush
//
// Recover replays the WAL into the memtable and index and advances the clock
// past the highest timestamp seen. Flush writes the current snapshot to a row
// segment and a column segment, appends a checkpoint record to the WAL,
// commits a manifest and, if an archive store is configured, uploads the
// segment files in parallel under the resource controller's I/O limit.
package engine
