package engine

import "time"

// MetricsObserver receives engine events.
type MetricsObserver interface {
	// OnInsert is called after every insert attempt.
	OnInsert(duration time.Duration, err error)

	// OnEmbed is called after every embedding call.
	OnEmbed(duration time.Duration)

	// OnFlush is called when a flush completes.
	OnFlush(duration time.Duration, rows int, err error)

	// OnRecover is called when WAL recovery completes.
	OnRecover(duration time.Duration, records int, err error)

	// OnThroughput reports bytes written to the archive.
	OnThroughput(name string, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnInsert(time.Duration, error)       {}
func (NoopMetricsObserver) OnEmbed(time.Duration)               {}
func (NoopMetricsObserver) OnFlush(time.Duration, int, error)   {}
func (NoopMetricsObserver) OnRecover(time.Duration, int, error) {}
func (NoopMetricsObserver) OnThroughput(string, int64)          {}
