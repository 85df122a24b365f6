package vecrow

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/vecrow/engine"
)

// MetricsCollector defines an interface for collecting operational metrics.
// PrometheusCollector exports them to Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert.
	RecordInsert(duration time.Duration, err error)

	// RecordEmbed is called after each embedding call.
	RecordEmbed(duration time.Duration)

	// RecordSearch is called after each similarity search or query.
	// k is the number of results requested.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordFlush is called after each flush with the number of rows written.
	RecordFlush(duration time.Duration, rows int, err error)

	// RecordRecovery is called after WAL replay.
	RecordRecovery(duration time.Duration, records int, err error)

	// RecordThroughput reports bytes archived under name.
	RecordThroughput(name string, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)         {}
func (NoopMetricsCollector) RecordEmbed(time.Duration)                 {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordFlush(time.Duration, int, error)     {}
func (NoopMetricsCollector) RecordRecovery(time.Duration, int, error)  {}
func (NoopMetricsCollector) RecordThroughput(string, int64)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	EmbedCount       atomic.Int64
	EmbedTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	FlushCount       atomic.Int64
	FlushErrors      atomic.Int64
	FlushedRows      atomic.Int64
	RecoveredRecords atomic.Int64
	RecoveryErrors   atomic.Int64
	ArchivedBytes    atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordEmbed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbed(duration time.Duration) {
	b.EmbedCount.Add(1)
	b.EmbedTotalNanos.Add(duration.Nanoseconds())
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(_ time.Duration, rows int, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
		return
	}
	b.FlushedRows.Add(int64(rows))
}

// RecordRecovery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecovery(_ time.Duration, records int, err error) {
	b.RecoveredRecords.Add(int64(records))
	if err != nil {
		b.RecoveryErrors.Add(1)
	}
}

// RecordThroughput implements MetricsCollector.
func (b *BasicMetricsCollector) RecordThroughput(_ string, bytes int64) {
	b.ArchivedBytes.Add(bytes)
}

// MetricsStats is a point-in-time copy of BasicMetricsCollector.
type MetricsStats struct {
	InsertCount       int64
	InsertErrors      int64
	AvgInsertDuration time.Duration
	EmbedCount        int64
	AvgEmbedDuration  time.Duration
	SearchCount       int64
	SearchErrors      int64
	AvgSearchDuration time.Duration
	FlushCount        int64
	FlushErrors       int64
	FlushedRows       int64
	RecoveredRecords  int64
	ArchivedBytes     int64
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		EmbedCount:       b.EmbedCount.Load(),
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		FlushCount:       b.FlushCount.Load(),
		FlushErrors:      b.FlushErrors.Load(),
		FlushedRows:      b.FlushedRows.Load(),
		RecoveredRecords: b.RecoveredRecords.Load(),
		ArchivedBytes:    b.ArchivedBytes.Load(),
	}
	if s.InsertCount > 0 {
		s.AvgInsertDuration = time.Duration(b.InsertTotalNanos.Load() / s.InsertCount)
	}
	if s.EmbedCount > 0 {
		s.AvgEmbedDuration = time.Duration(b.EmbedTotalNanos.Load() / s.EmbedCount)
	}
	if s.SearchCount > 0 {
		s.AvgSearchDuration = time.Duration(b.SearchTotalNanos.Load() / s.SearchCount)
	}
	return s
}

// observer forwards engine events to a MetricsCollector.
type observer struct {
	c MetricsCollector
}

var _ engine.MetricsObserver = observer{}

func (o observer) OnInsert(d time.Duration, err error) { o.c.RecordInsert(d, err) }
func (o observer) OnEmbed(d time.Duration)             { o.c.RecordEmbed(d) }
func (o observer) OnFlush(d time.Duration, rows int, err error) {
	o.c.RecordFlush(d, rows, err)
}
func (o observer) OnRecover(d time.Duration, records int, err error) {
	o.c.RecordRecovery(d, records, err)
}
func (o observer) OnThroughput(name string, bytes int64) { o.c.RecordThroughput(name, bytes) }
