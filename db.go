package vecrow

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecrow/access"
	"github.com/hupe1980/vecrow/embedder"
	"github.com/hupe1980/vecrow/engine"
	"github.com/hupe1980/vecrow/index"
	"github.com/hupe1980/vecrow/internal/manifest"
	"github.com/hupe1980/vecrow/internal/resource"
	"github.com/hupe1980/vecrow/model"
	"github.com/hupe1980/vecrow/planner"
)

// Segment describes a flushed segment pair.
type Segment = manifest.Segment

// Result is a similarity hit resolved to the row it was indexed from.
type Result struct {
	ID    uint64       `json:"id"`
	Score float32      `json:"score"`
	Key   model.RowKey `json:"key"`

	// Row is the latest version of Key, nil if the key is unknown.
	Row *model.VersionedRow `json:"row,omitempty"`
}

// Stats summarises the state of a DB.
type Stats struct {
	Now          model.Timestamp
	Keys         int
	IndexLen     int
	Segments     int
	CheckpointTS model.Timestamp
}

// DB is an embedded multi-version row store with similarity search.
type DB struct {
	eng     *engine.Engine
	planner *planner.Planner
	space   string
	res     *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	keysMu sync.RWMutex
	keys   map[uint64]model.RowKey

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Open creates a DB around emb and replays the WAL if one is configured.
func Open(ctx context.Context, emb embedder.Embedder, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)
	if o.flushInterval > 0 {
		probe := engine.DefaultOptions
		for _, fn := range o.engine {
			fn(&probe)
		}
		if probe.DataDir == "" {
			return nil, fmt.Errorf("%w: background flush needs a data directory", ErrNotConfigured)
		}
	}

	res := resource.NewController(o.resources)

	engineOpts := append([]func(*engine.Options){
		func(eo *engine.Options) {
			eo.Logger = o.logger.Logger
			eo.Metrics = observer{c: o.metricsCollector}
			eo.Resources = res
		},
	}, o.engine...)

	eng, err := engine.New(emb, engineOpts...)
	if err != nil {
		return nil, translateError(err)
	}

	stats, err := eng.Recover(ctx)
	o.logger.LogRecovery(ctx, stats.Records, err)
	if err != nil {
		_ = eng.Close()
		return nil, translateError(err)
	}

	db := &DB{
		eng: eng,
		planner: planner.New(emb, func(po *planner.Options) {
			po.Access = o.access
			po.Logger = o.logger.Logger
		}),
		space:   o.space,
		res:     res,
		logger:  o.logger,
		metrics: o.metricsCollector,
		keys:    make(map[uint64]model.RowKey),
		stop:    make(chan struct{}),
	}

	for _, v := range eng.Scan(eng.Now()) {
		db.keys[engine.HashKey(v.Row.Key)] = v.Row.Key
	}

	if o.flushInterval > 0 {
		db.wg.Add(1)
		go db.flushLoop(o.flushInterval)
	}

	return db, nil
}

// NewTxnID returns a random transaction id.
func NewTxnID() model.TxnID {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8])
}

// Insert writes a new version of row.
func (db *DB) Insert(ctx context.Context, txn model.TxnID, row model.Row) error {
	err := db.eng.Insert(ctx, txn, row)
	db.logger.LogInsert(ctx, row.Key, txn, err)
	if err != nil {
		return translateError(err)
	}

	db.keysMu.Lock()
	db.keys[engine.HashKey(row.Key)] = row.Key
	db.keysMu.Unlock()
	return nil
}

// Put inserts payload under key with a fresh transaction id.
func (db *DB) Put(ctx context.Context, key model.RowKey, payload model.Document) (model.TxnID, error) {
	txn := NewTxnID()
	return txn, db.Insert(ctx, txn, model.Row{Key: key, Payload: payload})
}

// Get returns the version of key visible at ts.
func (db *DB) Get(key model.RowKey, ts model.Timestamp) (model.VersionedRow, bool) {
	return db.eng.Get(key, ts)
}

// Latest returns the newest version of key.
func (db *DB) Latest(key model.RowKey) (model.VersionedRow, bool) {
	return db.eng.Get(key, db.eng.Now())
}

// Scan returns the newest visible version of every key at ts, in key order.
func (db *DB) Scan(ts model.Timestamp) []model.VersionedRow {
	return db.eng.Scan(ts)
}

// Versions returns every stored version of key.
func (db *DB) Versions(key model.RowKey) []model.VersionedRow {
	return db.eng.Versions(key)
}

// Now returns the current logical timestamp.
func (db *DB) Now() model.Timestamp {
	return db.eng.Now()
}

// EmbeddingMeta returns how the latest vector of key was produced.
func (db *DB) EmbeddingMeta(key model.RowKey) (model.EmbeddingMeta, bool) {
	return db.eng.EmbeddingMeta(key)
}

// Index returns the active vector index.
func (db *DB) Index() index.Index {
	return db.eng.Index()
}

// Search returns the k rows most similar to text.
//
// Every Put of a key adds an index entry under the same id, so a key that was
// written more than once can appear more than once in the results.
func (db *DB) Search(ctx context.Context, text string, k int) ([]Result, error) {
	return db.search(ctx, k, func() ([]index.Hit, error) {
		return db.planner.Similar(ctx, db.eng.Index(), text, k)
	})
}

// Query runs a SemanticQL statement. The active index answers to the
// configured space name and to "*".
func (db *DB) Query(ctx context.Context, statement string) ([]Result, error) {
	return db.query(ctx, db.planner, statement)
}

// WithAccess returns a session whose searches are gated by desc.
func (db *DB) WithAccess(desc access.Descriptor) *Session {
	return &Session{db: db, planner: db.planner.WithAccess(desc)}
}

func (db *DB) query(ctx context.Context, p *planner.Planner, statement string) ([]Result, error) {
	k := planner.DefaultK
	if q, err := planner.ParseSemanticQL(statement); err == nil {
		k = q.K
	}
	return db.search(ctx, k, func() ([]index.Hit, error) {
		return p.Execute(ctx, planner.Spaces{db.space: db.eng.Index()}, statement)
	})
}

func (db *DB) search(ctx context.Context, k int, fn func() ([]index.Hit, error)) ([]Result, error) {
	start := time.Now()
	hits, err := fn()
	db.metrics.RecordSearch(k, time.Since(start), err)
	db.logger.LogSearch(ctx, k, len(hits), err)
	if err != nil {
		return nil, translateError(err)
	}
	return db.resolve(hits), nil
}

func (db *DB) resolve(hits []index.Hit) []Result {
	now := db.eng.Now()
	results := make([]Result, len(hits))

	db.keysMu.RLock()
	defer db.keysMu.RUnlock()

	for i, h := range hits {
		results[i] = Result{ID: h.ID, Score: h.Score}
		key, ok := db.keys[h.ID]
		if !ok {
			continue
		}
		results[i].Key = key
		if v, ok := db.eng.Get(key, now); ok {
			results[i].Row = &v
		}
	}
	return results
}

// Flush writes the versions since the last flush into a new segment. It
// returns nil when there is nothing to write.
func (db *DB) Flush(ctx context.Context) (*Segment, error) {
	seg, err := db.eng.Flush(ctx)
	if seg != nil {
		db.logger.LogFlush(ctx, seg.ID, seg.Rows, err)
	} else {
		db.logger.LogFlush(ctx, "", 0, err)
	}
	return seg, translateError(err)
}

func (db *DB) flushLoop(interval time.Duration) {
	defer db.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-db.stop:
			return
		case <-ticker.C:
			if !db.res.TryAcquireBackground() {
				continue
			}
			_, _ = db.Flush(context.Background())
			db.res.ReleaseBackground()
		}
	}
}

// Stats returns a snapshot of the database state.
func (db *DB) Stats() Stats {
	s := Stats{
		Now:      db.eng.Now(),
		IndexLen: db.eng.Index().Len(),
	}

	db.keysMu.RLock()
	s.Keys = len(db.keys)
	db.keysMu.RUnlock()

	if m := db.eng.Manifest(); m != nil {
		s.Segments = len(m.Segments)
		s.CheckpointTS = m.CheckpointTS
	}
	return s
}

// Close stops background flushing and closes the WAL. It is safe to call
// more than once.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.closeOnce.Do(func() {
		close(db.stop)
		db.wg.Wait()
		db.closeErr = db.eng.Close()
	})
	return db.closeErr
}

// Session is a view of a DB with its own access descriptor.
type Session struct {
	db      *DB
	planner *planner.Planner
}

// Search returns the k rows most similar to text, gated by the session's
// descriptor.
func (s *Session) Search(ctx context.Context, text string, k int) ([]Result, error) {
	return s.db.search(ctx, k, func() ([]index.Hit, error) {
		return s.planner.Similar(ctx, s.db.eng.Index(), text, k)
	})
}

// Query runs a SemanticQL statement gated by the session's descriptor.
func (s *Session) Query(ctx context.Context, statement string) ([]Result, error) {
	return s.db.query(ctx, s.planner, statement)
}
