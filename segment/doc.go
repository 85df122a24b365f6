// Package segment implements the immutable on-disk forms a memory table is
// flushed into.
//
// A RowSegment is a sequence of length-prefixed frames: one leading metadata
// frame followed by one frame per versioned row, sharing the framing of the
// write-ahead log. A ColumnSegment stores string columns as an offset table
// plus a length-prefixed value blob and a zone map per column, and is written
// as a single frame wrapping the whole (optionally compressed) segment.
package segment
