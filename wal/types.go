package wal

import (
	"log/slog"

	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/internal/fs"
	"github.com/hupe1980/vecrow/model"
)

// DurabilityMode defines the fsync behavior for WAL writes.
type DurabilityMode int

const (
	// DurabilityAsync flushes the write buffer to the file after every append
	// but never fsyncs. Records survive a process crash, not a power loss.
	DurabilityAsync DurabilityMode = iota

	// DurabilitySync fsyncs after every append.
	DurabilitySync
)

// String returns the mode name.
func (m DurabilityMode) String() string {
	switch m {
	case DurabilityAsync:
		return "async"
	case DurabilitySync:
		return "sync"
	default:
		return "unknown"
	}
}

// RecordType identifies the kind of a WAL record.
type RecordType uint8

const (
	// RecordTypeInsert carries a newly written version.
	RecordTypeInsert RecordType = iota + 1
	// RecordTypeCheckpoint marks that every version up to CheckpointTS has been
	// flushed to segments.
	RecordTypeCheckpoint
)

// String returns the record type name.
func (t RecordType) String() string {
	switch t {
	case RecordTypeInsert:
		return "insert"
	case RecordTypeCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// Record is a single entry in the WAL.
type Record struct {
	Type RecordType

	// Row is set for RecordTypeInsert.
	Row model.VersionedRow

	// CheckpointTS is set for RecordTypeCheckpoint.
	CheckpointTS model.Timestamp
}

// Options contains configuration for the WAL.
type Options struct {
	// FileSystem is used to open the log file. Defaults to the local file system.
	FileSystem fs.FileSystem

	// Codec encodes row payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compress enables zstd compression of each record payload.
	// The frame header stays uncompressed so framing is unchanged.
	Compress bool

	// CompressionLevel sets the zstd compression level (1-22).
	CompressionLevel int

	// DurabilityMode controls fsync behavior.
	DurabilityMode DurabilityMode

	// Logger receives diagnostic messages. Defaults to a discard logger.
	Logger *slog.Logger
}

// DefaultOptions returns default WAL options.
var DefaultOptions = Options{
	Compress:         false,
	CompressionLevel: 3,
	DurabilityMode:   DurabilityAsync,
}
