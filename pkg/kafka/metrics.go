package kafka

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type producerMetrics struct {
	msgs    *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	m := &producerMetrics{
		msgs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_kafka_producer_messages_total",
			Help: "Messages published to Kafka by result.",
		}, []string{"topic", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_kafka_producer_bytes_total",
			Help: "Payload bytes published to Kafka.",
		}, []string{"topic"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "findash_kafka_producer_publish_seconds",
			Help:    "Time spent in one publish call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	if reg != nil {
		m.msgs = registerOrExisting(reg, m.msgs)
		m.bytes = registerOrExisting(reg, m.bytes)
		m.latency = registerOrExisting(reg, m.latency)
	}
	return m
}

func (m *producerMetrics) observe(topic string, size int64, count int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.msgs.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}

type consumerMetrics struct {
	handled       *prometheus.CounterVec
	handleLatency *prometheus.HistogramVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	m := &consumerMetrics{
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_kafka_consumer_messages_total",
			Help: "Consumed messages by result.",
		}, []string{"topic", "result"}),
		handleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "findash_kafka_consumer_handle_seconds",
			Help: "Handling time per message, retries included.",
		}, []string{"topic"}),
	}
	if reg != nil {
		m.handled = registerOrExisting(reg, m.handled)
		m.handleLatency = registerOrExisting(reg, m.handleLatency)
	}
	return m
}

// registerOrExisting registers c on reg and returns the collector already
// registered under the same description, if there is one.
func registerOrExisting[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}
