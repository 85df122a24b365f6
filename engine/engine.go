package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/index"
	"github.com/hupe1980/vecrow/internal/fs"
	"github.com/hupe1980/vecrow/internal/manifest"
	"github.com/hupe1980/vecrow/internal/mvcc"
	"github.com/hupe1980/vecrow/memtable"
	"github.com/hupe1980/vecrow/model"
	"github.com/hupe1980/vecrow/wal"
)

// initialTS is the clock value before the first write.
const initialTS model.Timestamp = 1

// Engine couples the memtable, WAL and active vector index.
type Engine struct {
	opts  Options
	emb   embedder.Embedder
	clock *mvcc.Clock
	mem   *memtable.MemTable
	idx   index.Index
	wal   *wal.WAL

	// writeMu orders timestamp assignment with the WAL and memtable appends.
	writeMu sync.Mutex

	metaMu sync.RWMutex
	meta   map[model.RowKey]model.EmbeddingMeta

	flushMu   sync.Mutex
	manifests *manifest.Store
	current   *manifest.Manifest

	closed atomic.Bool
	logger *slog.Logger
}

// New creates an engine around emb. The vector dimensionality is emb.Dims().
func New(emb embedder.Embedder, optFns ...func(o *Options)) (*Engine, error) {
	if emb == nil {
		return nil, ErrNilEmbedder
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsObserver{}
	}
	opts.Codec = codec.OrDefault(opts.Codec)
	opts.FileSystem = fs.OrDefault(opts.FileSystem)

	idx, err := opts.newIndex(emb.Dims())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	e := &Engine{
		opts:   opts,
		emb:    emb,
		clock:  mvcc.NewClock(initialTS),
		mem:    memtable.New(),
		idx:    idx,
		meta:   make(map[model.RowKey]model.EmbeddingMeta),
		logger: opts.Logger,
	}

	if opts.DataDir != "" {
		if err := e.loadManifest(context.Background()); err != nil {
			return nil, err
		}
	}

	if opts.WALPath != "" {
		w, err := wal.Open(opts.WALPath, func(o *wal.Options) {
			o.FileSystem = opts.FileSystem
			o.Codec = opts.Codec
			o.Compress = opts.CompressWAL
			o.DurabilityMode = opts.Durability
			o.Logger = opts.Logger
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open wal: %w", err)
		}
		e.wal = w
	}

	return e, nil
}

func (e *Engine) loadManifest(ctx context.Context) error {
	e.manifests = manifest.NewStore(blobstore.NewLocalStore(e.opts.DataDir), e.opts.Codec)

	m, err := e.manifests.Load(ctx)
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		e.current = manifest.New(e.emb.Dims(), e.idx.Name())
	case err != nil:
		return fmt.Errorf("failed to load manifest: %w", err)
	default:
		if m.Dims != e.emb.Dims() {
			return &index.ErrDimensionMismatch{Expected: m.Dims, Actual: e.emb.Dims()}
		}
		e.current = m
		e.clock.AdvanceTo(m.CheckpointTS)
	}
	return nil
}

// HashKey maps a row key to its vector id (FNV-1a, 64 bit).
func HashKey(key model.RowKey) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// Insert writes a new version of row at the next timestamp.
func (e *Engine) Insert(ctx context.Context, txn model.TxnID, row model.Row) (err error) {
	if e.closed.Load() {
		return ErrClosed
	}

	start := time.Now()
	defer func() { e.opts.Metrics.OnInsert(time.Since(start), err) }()

	v, err := e.commit(txn, row)
	if err != nil {
		return err
	}

	text, ok := row.Payload.Text()
	if !ok {
		e.logger.Debug("insert", "key", row.Key, "ts", v.BeginTS)
		return nil
	}

	if err := e.indexText(ctx, row.Key, v.BeginTS, text); err != nil {
		return err
	}

	e.logger.Debug("insert", "key", row.Key, "ts", v.BeginTS, "embedded", true)

	if e.opts.Enricher != nil {
		e.enrich(ctx, row.Key, text)
	}

	return nil
}

// commit stamps row with the next timestamp and makes it durable and visible.
// A failed WAL append leaves the memtable untouched.
func (e *Engine) commit(txn model.TxnID, row model.Row) (model.VersionedRow, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	v := model.VersionedRow{
		BeginTS: e.clock.Next(),
		TxnID:   txn,
		Row:     row,
	}

	if e.wal != nil {
		if _, err := e.wal.Append(&wal.Record{Type: wal.RecordTypeInsert, Row: v}); err != nil {
			return v, fmt.Errorf("failed to append to wal: %w", err)
		}
	}

	e.mem.Upsert(v)
	return v, nil
}

func (e *Engine) indexText(ctx context.Context, key model.RowKey, ts model.Timestamp, text string) error {
	// The row is already committed, so cancellation must not skip indexing.
	if err := e.opts.Resources.AcquireEmbed(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	start := time.Now()
	vec := e.emb.Embed(ctx, text)
	e.opts.Resources.ReleaseEmbed()
	e.opts.Metrics.OnEmbed(time.Since(start))

	if err := e.idx.Add(HashKey(key), vec); err != nil {
		return fmt.Errorf("failed to index %q: %w", key, err)
	}

	e.metaMu.Lock()
	e.meta[key] = model.EmbeddingMeta{
		ModelID:   e.emb.ModelID(),
		Dims:      len(vec),
		CreatedTS: ts,
	}
	e.metaMu.Unlock()

	return nil
}

func (e *Engine) enrich(ctx context.Context, key model.RowKey, text string) {
	out, err := e.opts.Enricher.Enrich(ctx, text)
	if err != nil {
		e.logger.Warn("enrichment failed", "key", key, "error", err)
		return
	}

	attrs := []any{"key", key, "entities", len(out.Entities), "kpis", len(out.KPIs), "drift", out.DriftFlag}
	if out.Summary != nil {
		attrs = append(attrs, "summary", out.Summary.Text)
	}
	e.logger.Debug("enriched", attrs...)
}

// Get returns the version of key visible at ts.
func (e *Engine) Get(key model.RowKey, ts model.Timestamp) (model.VersionedRow, bool) {
	return e.mem.GetVisible(key, ts)
}

// Scan returns the newest visible version of every key at ts, in key order.
func (e *Engine) Scan(ts model.Timestamp) []model.VersionedRow {
	return e.mem.ScanVisible(ts)
}

// Versions returns every stored version of key.
func (e *Engine) Versions(key model.RowKey) []model.VersionedRow {
	return e.mem.Versions(key)
}

// Now returns the current clock value.
func (e *Engine) Now() model.Timestamp {
	return e.clock.Now()
}

// Index returns the active vector index.
func (e *Engine) Index() index.Index {
	return e.idx
}

// Embedder returns the engine's embedder.
func (e *Engine) Embedder() embedder.Embedder {
	return e.emb
}

// EmbeddingMeta returns how the latest vector of key was produced.
func (e *Engine) EmbeddingMeta(key model.RowKey) (model.EmbeddingMeta, bool) {
	e.metaMu.RLock()
	defer e.metaMu.RUnlock()
	m, ok := e.meta[key]
	return m, ok
}

// Manifest returns a copy of the current manifest, or nil without a data directory.
func (e *Engine) Manifest() *manifest.Manifest {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.Clone()
}

// Close closes the WAL. Further writes fail with ErrClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.wal != nil {
		return e.wal.Close()
	}
	return nil
}
