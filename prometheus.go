package vecrow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports metrics through prometheus/client_golang.
type PrometheusCollector struct {
	opLatency   *prometheus.HistogramVec
	embedTime   prometheus.Histogram
	flushedRows prometheus.Counter
	recovered   prometheus.Counter
	archived    *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers it with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecrow_operation_latency_seconds",
			Help:    "Latency of database operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		embedTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecrow_embed_latency_seconds",
			Help:    "Latency of embedding calls",
			Buckets: prometheus.DefBuckets,
		}),
		flushedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecrow_flushed_rows_total",
			Help: "Total row versions written to segments",
		}),
		recovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecrow_recovered_records_total",
			Help: "Total WAL records replayed",
		}),
		archived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecrow_archived_bytes_total",
			Help: "Total bytes uploaded to the archive",
		}, []string{"file"}),
	}

	for _, c := range []prometheus.Collector{p.opLatency, p.embedTime, p.flushedRows, p.recovered, p.archived} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements MetricsCollector.
func (p *PrometheusCollector) RecordInsert(d time.Duration, err error) {
	p.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
}

// RecordEmbed implements MetricsCollector.
func (p *PrometheusCollector) RecordEmbed(d time.Duration) {
	p.embedTime.Observe(d.Seconds())
}

// RecordSearch implements MetricsCollector.
func (p *PrometheusCollector) RecordSearch(_ int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
}

// RecordFlush implements MetricsCollector.
func (p *PrometheusCollector) RecordFlush(d time.Duration, rows int, err error) {
	p.opLatency.WithLabelValues("flush", status(err)).Observe(d.Seconds())
	if err == nil {
		p.flushedRows.Add(float64(rows))
	}
}

// RecordRecovery implements MetricsCollector.
func (p *PrometheusCollector) RecordRecovery(d time.Duration, records int, err error) {
	p.opLatency.WithLabelValues("recover", status(err)).Observe(d.Seconds())
	p.recovered.Add(float64(records))
}

// RecordThroughput implements MetricsCollector.
func (p *PrometheusCollector) RecordThroughput(name string, bytes int64) {
	p.archived.WithLabelValues(name).Add(float64(bytes))
}
