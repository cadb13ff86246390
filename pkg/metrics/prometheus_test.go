package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinDash/internal/domain/repository"
)

var (
	_ repository.Metrics = (*Recorder)(nil)
	_ repository.Metrics = Noop{}
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRefresh("ok", 0.1)
	r.RecordRefresh("ok", 0.2)
	r.RecordRefresh("error", 0.3)
	r.RecordStaleDrop()
	r.RecordQuoteFallback("TSLA")
	r.RecordPanicScore(0.42)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.refreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.refreshes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staleDrops))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("TSLA")))
	assert.Equal(t, 0.42, testutil.ToFloat64(r.panicScore))
}

func TestRecorderIsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
