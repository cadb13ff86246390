package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "FinDash/pkg/logger"
)

type ProducerOption func(*ProducerConfig)

type ProducerConfig struct {
	Brokers      []string
	Compression  string // gzip, snappy, lz4 or zstd
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	// Async makes Publish return before the broker acknowledges.
	Async bool
	// HashByKey sends equal keys to one partition.
	HashByKey       bool
	AutoCreateTopic bool
	Registerer      prometheus.Registerer
}

func defaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		Registerer:   prometheus.DefaultRegisterer,
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) {
		if compression != "" {
			c.Compression = compression
		}
	}
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithTimeouts sets the writer's write and read deadlines. Zero values
// keep the defaults.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}

func WithAutoCreateTopic(on bool) ProducerOption {
	return func(c *ProducerConfig) { c.AutoCreateTopic = on }
}

func WithProducerRegisterer(reg prometheus.Registerer) ProducerOption {
	return func(c *ProducerConfig) { c.Registerer = reg }
}

type ConsumerOption func(*ConsumerConfig)

type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	StartOffset int64 // kafka.FirstOffset or kafka.LastOffset, for a new group
	RetryMax    int   // retries after the first attempt
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	// DLQTopic receives messages whose retries ran out. Empty drops them.
	DLQTopic   string
	MinBytes   int
	MaxBytes   int
	Registerer prometheus.Registerer
	Logger     *applogger.Logger
}

func defaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		GroupID:     "findash",
		StartOffset: kafka.LastOffset,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
		Registerer:  prometheus.DefaultRegisterer,
		Logger:      applogger.Nop(),
	}
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

func WithConsumerStartOffset(offset int64) ConsumerOption {
	return func(c *ConsumerConfig) { c.StartOffset = offset }
}

// WithConsumerRetry sets the retry count and the backoff range between
// attempts.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if max >= 0 {
			c.RetryMax = max
		}
		if backoffMin > 0 {
			c.BackoffMin = backoffMin
		}
		if backoffMax > 0 {
			c.BackoffMax = backoffMax
		}
	}
}

func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) { c.Registerer = reg }
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}
