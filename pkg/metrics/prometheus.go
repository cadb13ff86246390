package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshes    *prometheus.CounterVec
	refreshTime  prometheus.Histogram
	staleDrops   prometheus.Counter
	quoteFetches *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	panicScore   prometheus.Gauge
	errorsTotal  *prometheus.CounterVec
}

// New creates a recorder registered on reg. A nil reg uses the default
// Prometheus registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_snapshot_refresh_total",
				Help: "Snapshot refresh attempts by result",
			},
			[]string{"result"},
		),
		refreshTime: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "findash_snapshot_refresh_seconds",
				Help:    "Snapshot fetch and decode duration",
				Buckets: prometheus.DefBuckets,
			},
		),
		staleDrops: f.NewCounter(
			prometheus.CounterOpts{
				Name: "findash_snapshot_stale_dropped_total",
				Help: "Refresh results discarded because a newer one was applied",
			},
		),
		quoteFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_quote_fetch_total",
				Help: "Quote fetches by provider mode and result",
			},
			[]string{"mode", "result"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_quote_fallback_total",
				Help: "Live quotes replaced by mock data",
			},
			[]string{"symbol"},
		),
		panicScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "findash_panic_score",
				Help: "Panic score of the last applied snapshot",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRefresh records one snapshot refresh and its duration.
func (r *Recorder) RecordRefresh(result string, seconds float64) {
	r.refreshes.WithLabelValues(result).Inc()
	r.refreshTime.Observe(seconds)
}

// RecordStaleDrop records a refresh whose result was discarded.
func (r *Recorder) RecordStaleDrop() {
	r.staleDrops.Inc()
}

// RecordQuoteFetch records a quote fetch outcome.
func (r *Recorder) RecordQuoteFetch(mode, result string) {
	r.quoteFetches.WithLabelValues(mode, result).Inc()
}

// RecordQuoteFallback records a live symbol served by the mock.
func (r *Recorder) RecordQuoteFallback(symbol string) {
	r.fallbacks.WithLabelValues(symbol).Inc()
}

// RecordPanicScore records the latest panic score.
func (r *Recorder) RecordPanicScore(score float64) {
	r.panicScore.Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) RecordRefresh(string, float64) {}
func (Noop) RecordStaleDrop() {}
func (Noop) RecordQuoteFetch(string, string) {}
func (Noop) RecordQuoteFallback(string) {}
func (Noop) RecordPanicScore(float64) {}
func (Noop) RecordError(string) {}
