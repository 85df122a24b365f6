package engine

import (
	"log/slog"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/enrich"
	"github.com/hupe1980/vecrow/index"
	"github.com/hupe1980/vecrow/index/flat"
	"github.com/hupe1980/vecrow/index/hnsw"
	"github.com/hupe1980/vecrow/internal/fs"
	"github.com/hupe1980/vecrow/internal/resource"
	"github.com/hupe1980/vecrow/segment"
	"github.com/hupe1980/vecrow/wal"
)

// IndexKind selects the active vector index.
type IndexKind string

const (
	IndexFlat IndexKind = "flat"
	IndexHNSW IndexKind = "hnsw"
)

// Options configures an Engine.
type Options struct {
	// WALPath enables the write-ahead log when non-empty.
	WALPath string

	// Durability controls fsync behaviour of the WAL.
	Durability wal.DurabilityMode

	// CompressWAL enables zstd compression of WAL records.
	CompressWAL bool

	// DataDir holds flushed segments and the manifest. Flush fails with
	// ErrNoDataDir when empty.
	DataDir string

	// IndexKind selects the active index when Index is nil.
	IndexKind IndexKind

	// Index overrides IndexKind with a caller-built index.
	Index index.Index

	// HNSW configures the graph index.
	HNSWM    int
	HNSWEF   int
	HNSWSeed *int64

	// Compression is used for column segments.
	Compression segment.CompressionType

	// Codec encodes payloads in the WAL, segments and manifest.
	Codec codec.Codec

	// FileSystem is used for the WAL and segment files.
	FileSystem fs.FileSystem

	// Enricher runs after each embedded insert. Nil disables enrichment.
	Enricher enrich.Enricher

	// Archive receives copies of flushed segments and manifests.
	Archive blobstore.BlobStore

	// Resources bounds embedding concurrency and archive I/O.
	Resources *resource.Controller

	Logger  *slog.Logger
	Metrics MetricsObserver
}

// DefaultOptions contains the default engine configuration.
var DefaultOptions = Options{
	Durability:  wal.DurabilityAsync,
	IndexKind:   IndexHNSW,
	HNSWM:       hnsw.DefaultM,
	HNSWEF:      hnsw.DefaultEF,
	Compression: segment.CompressionZSTD,
}

func (o *Options) newIndex(dims int) (index.Index, error) {
	if o.Index != nil {
		if o.Index.Dims() != dims {
			return nil, &index.ErrDimensionMismatch{Expected: dims, Actual: o.Index.Dims()}
		}
		return o.Index, nil
	}

	switch o.IndexKind {
	case IndexFlat:
		return flat.New(dims), nil
	case IndexHNSW, "":
		return hnsw.New(func(h *hnsw.Options) {
			h.Dimension = dims
			h.M = o.HNSWM
			h.EF = o.HNSWEF
			h.RandomSeed = o.HNSWSeed
		})
	default:
		return nil, ErrUnknownIndex
	}
}
