package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecrow/internal/manifest"
	"github.com/hupe1980/vecrow/internal/resource"
	"github.com/hupe1980/vecrow/model"
	"github.com/hupe1980/vecrow/segment"
	"github.com/hupe1980/vecrow/wal"
)

const (
	segmentDir = "segments/"

	// ColumnKey and ColumnText name the columns of a flushed column segment.
	ColumnKey  = "key"
	ColumnText = "text"
)

// Flush writes every version newer than the last checkpoint into a new row
// segment and column segment, then commits them to the manifest.
// It returns nil when there is nothing to flush.
func (e *Engine) Flush(ctx context.Context) (seg *manifest.Segment, err error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if e.manifests == nil {
		return nil, ErrNoDataDir
	}

	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	start := time.Now()
	rows := 0
	defer func() { e.opts.Metrics.OnFlush(time.Since(start), rows, err) }()

	var pending []model.VersionedRow
	for _, v := range e.mem.Snapshot() {
		if v.BeginTS > e.current.CheckpointTS {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	rows = len(pending)

	id := uuid.NewString()
	s := manifest.Segment{
		ID:         id,
		RowPath:    segmentDir + id + ".rows",
		ColumnPath: segmentDir + id + ".cols",
		Rows:       uint64(len(pending)),
		MinTS:      pending[0].BeginTS,
		MaxTS:      pending[0].BeginTS,
		CreatedAt:  time.Now(),
	}
	for _, v := range pending {
		s.MinTS = min(s.MinTS, v.BeginTS)
		s.MaxTS = max(s.MaxTS, v.BeginTS)
	}

	if err := e.writeRowSegment(s.RowPath, pending); err != nil {
		return nil, err
	}
	if err := e.writeColumnSegment(s.ColumnPath, pending, s.MinTS, s.MaxTS); err != nil {
		return nil, err
	}

	if e.wal != nil {
		if _, err := e.wal.Append(&wal.Record{Type: wal.RecordTypeCheckpoint, CheckpointTS: s.MaxTS}); err != nil {
			return nil, fmt.Errorf("failed to append checkpoint: %w", err)
		}
	}

	next := e.current.Clone()
	next.AddSegment(s)
	if err := e.manifests.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	e.current = next

	if e.opts.Archive != nil {
		if err := e.archive(ctx, next, s); err != nil {
			return nil, err
		}
	}

	e.logger.Info("flushed",
		"segment", id,
		"rows", s.Rows,
		"min_ts", s.MinTS,
		"max_ts", s.MaxTS,
		"manifest", next.ID,
		"duration", time.Since(start),
	)

	return &s, nil
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.opts.DataDir, filepath.FromSlash(name))
}

func (e *Engine) segmentOptions(o *segment.Options) {
	o.FileSystem = e.opts.FileSystem
	o.Codec = e.opts.Codec
	o.Compression = e.opts.Compression
	o.Sync = true
}

func (e *Engine) writeRowSegment(name string, rows []model.VersionedRow) error {
	rs, err := segment.CreateRowSegment(e.path(name), e.segmentOptions)
	if err != nil {
		return err
	}

	for i := range rows {
		if err := rs.Append(&rows[i]); err != nil {
			_ = rs.Close()
			return fmt.Errorf("failed to write row segment: %w", err)
		}
	}

	return rs.Close()
}

func (e *Engine) writeColumnSegment(name string, rows []model.VersionedRow, minTS, maxTS model.Timestamp) error {
	keys := make([]string, len(rows))
	texts := make([]string, len(rows))
	for i, v := range rows {
		keys[i] = v.Row.Key.String()
		texts[i], _ = v.Row.Payload.Text()
	}

	cs := segment.NewColumnSegment()
	cs.AddStringColumn(ColumnKey, keys)
	cs.AddStringColumn(ColumnText, texts)
	for _, col := range []string{ColumnKey, ColumnText} {
		if err := cs.SetTimeRange(col, minTS, maxTS); err != nil {
			return err
		}
	}

	return cs.WriteFile(e.path(name), e.segmentOptions)
}

// archive uploads both segment files in parallel and then the manifest.
func (e *Engine) archive(ctx context.Context, m *manifest.Manifest, s manifest.Segment) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{s.RowPath, s.ColumnPath} {
		g.Go(func() error {
			return e.upload(gctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to archive segment %s: %w", s.ID, err)
	}

	// Keep the archive's manifest ids aligned with the local ones.
	am := m.Clone()
	am.ID--
	if err := manifest.NewStore(e.opts.Archive, e.opts.Codec).Save(ctx, am); err != nil {
		return fmt.Errorf("failed to archive manifest: %w", err)
	}
	return nil
}

func (e *Engine) upload(ctx context.Context, name string) error {
	src, err := e.opts.FileSystem.OpenFile(e.path(name), os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := e.opts.Archive.Create(ctx, name)
	if err != nil {
		return err
	}

	n, err := io.Copy(resource.ThrottleWriter(ctx, dst, e.opts.Resources), src)
	if err != nil {
		_ = dst.Abort()
		return err
	}

	if err := dst.Close(); err != nil {
		return err
	}

	e.opts.Metrics.OnThroughput("archive", n)
	return nil
}
