package vecrow

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vecrow/access"
	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/engine"
	"github.com/hupe1980/vecrow/enrich"
	"github.com/hupe1980/vecrow/internal/resource"
	"github.com/hupe1980/vecrow/wal"
)

// DefaultSpace is the space name the active index answers to in SemanticQL.
const DefaultSpace = "default"

type options struct {
	engine           []func(*engine.Options)
	resources        resource.Config
	access           access.Descriptor
	space            string
	flushInterval    time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open.
type Option func(*options)

// WithWAL enables the write-ahead log at path. Open replays it.
//
// Example:
//
//	db, _ := vecrow.Open(ctx, emb,
//	    vecrow.WithWAL("./wal/vecrow.wal"),
//	    vecrow.WithDurability(wal.DurabilitySync),
//	)
func WithWAL(path string) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.WALPath = path
	})
}

// WithDurability sets the WAL fsync behaviour.
func WithDurability(mode wal.DurabilityMode) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.Durability = mode
	})
}

// WithWALCompression enables zstd compression of WAL records.
func WithWALCompression() Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.CompressWAL = true
	})
}

// WithDataDir sets the directory for flushed segments and the manifest.
func WithDataDir(dir string) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.DataDir = dir
	})
}

// WithFlat selects the exact flat index.
func WithFlat() Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.IndexKind = engine.IndexFlat
	})
}

// WithHNSW selects the graph index with the given degree bound and beam width.
// Zero values keep the defaults.
func WithHNSW(m, ef int) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.IndexKind = engine.IndexHNSW
		if m > 0 {
			o.HNSWM = m
		}
		if ef > 0 {
			o.HNSWEF = ef
		}
	})
}

// WithCodec configures the payload codec. Nil selects codec.Default.
func WithCodec(c codec.Codec) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.Codec = c
	})
}

// WithEnricher runs e after every embedded insert.
func WithEnricher(e enrich.Enricher) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.Enricher = e
	})
}

// WithArchive copies flushed segments and manifests to store.
func WithArchive(store blobstore.BlobStore) Option {
	return WithEngineOptions(func(o *engine.Options) {
		o.Archive = store
	})
}

// WithMaxConcurrentEmbeds bounds concurrent embedding calls. 0 is unlimited.
func WithMaxConcurrentEmbeds(n int) Option {
	return func(o *options) {
		o.resources.MaxConcurrentEmbeds = int64(n)
	}
}

// WithArchiveRateLimit caps archive upload throughput. 0 is unlimited.
func WithArchiveRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.ArchiveBytesPerSec = bytesPerSec
	}
}

// WithFlushInterval flushes in the background every d. It requires a data
// directory. 0 disables background flushing.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) {
		o.flushInterval = d
	}
}

// WithAccess gates Search and Query results with desc.
func WithAccess(desc access.Descriptor) Option {
	return func(o *options) {
		o.access = desc
	}
}

// WithSpace names the active index in SemanticQL statements.
func WithSpace(name string) Option {
	return func(o *options) {
		o.space = name
	}
}

// WithEngineOptions applies raw engine options.
func WithEngineOptions(fn func(*engine.Options)) Option {
	return func(o *options) {
		o.engine = append(o.engine, fn)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecrow.BasicMetricsCollector{}
//	db, _ := vecrow.Open(ctx, emb, vecrow.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		space:            DefaultSpace,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
