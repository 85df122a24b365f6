package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/vecrow/model"
	"github.com/hupe1980/vecrow/wal"
)

// RecoveryStats summarises a WAL replay.
type RecoveryStats struct {
	Records      int
	Inserts      int
	Checkpoints  int
	MaxTS        model.Timestamp
	CheckpointTS model.Timestamp
}

// Recover replays the WAL into the memtable and index and advances the clock
// past the highest timestamp seen. It is a no-op without a WAL.
//
// Text payloads are embedded again, so a non-deterministic embedder yields
// different vectors than before the restart.
func (e *Engine) Recover(ctx context.Context) (stats RecoveryStats, err error) {
	if e.closed.Load() {
		return stats, ErrClosed
	}
	if e.wal == nil {
		return stats, nil
	}

	start := time.Now()
	defer func() { e.opts.Metrics.OnRecover(time.Since(start), stats.Records, err) }()

	records, replayErr := e.wal.Replay()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Records++
		switch rec.Type {
		case wal.RecordTypeInsert:
			if err := e.apply(ctx, rec.Row); err != nil {
				return stats, err
			}
			stats.Inserts++
			stats.MaxTS = max(stats.MaxTS, rec.Row.BeginTS)
		case wal.RecordTypeCheckpoint:
			stats.Checkpoints++
			stats.CheckpointTS = max(stats.CheckpointTS, rec.CheckpointTS)
		}
	}

	e.clock.AdvanceTo(max(stats.MaxTS, stats.CheckpointTS))

	if replayErr != nil {
		e.logger.Error("wal replay stopped", "records", stats.Records, "error", replayErr)
		return stats, fmt.Errorf("failed to replay wal: %w", replayErr)
	}

	e.logger.Info("recovered",
		"records", stats.Records,
		"inserts", stats.Inserts,
		"checkpoints", stats.Checkpoints,
		"clock", e.clock.Now(),
		"duration", time.Since(start),
	)
	return stats, nil
}

func (e *Engine) apply(ctx context.Context, v model.VersionedRow) error {
	e.mem.Upsert(v)

	text, ok := v.Row.Payload.Text()
	if !ok {
		return nil
	}
	return e.indexText(ctx, v.Row.Key, v.BeginTS, text)
}
