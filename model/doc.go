// Package model defines core types used throughout vecrow.
//
// # Identity Types
//
//   - RowKey: opaque user key; all versions sharing a key form a version chain
//   - Timestamp: process-wide logical write timestamp
//   - TxnID: caller-supplied transaction identifier
//
// # Data Types
//
//   - Row: key plus a semi-structured Document payload
//   - VersionedRow: a Row stamped with its validity interval
//   - Vector: fixed-length float32 embedding
//   - Hit: a similarity search result (id, score)
package model
