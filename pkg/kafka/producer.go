package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is one record for PublishBatch. Value follows the Publish
// encoding rules.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer publishes to any topic through one shared writer.
type Producer struct {
	writer  *kafka.Writer
	metrics *producerMetrics
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               balancer,
			RequiredAcks:           kafka.RequireAll,
			Compression:            parseCompression(cfg.Compression),
			MaxAttempts:            cfg.MaxAttempts,
			WriteTimeout:           cfg.WriteTimeout,
			ReadTimeout:            cfg.ReadTimeout,
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.BatchTimeout,
			Async:                  cfg.Async,
			AllowAutoTopicCreation: cfg.AutoCreateTopic,
		},
		metrics: newProducerMetrics(cfg.Registerer),
	}, nil
}

// Publish sends one message. []byte and string values are sent as is;
// anything else is JSON encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch sends messages to topic in a single write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	now := time.Now()
	out := make([]kafka.Message, len(messages))
	var size int64
	for i, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now}
		size += int64(len(v))
	}

	err := p.writer.WriteMessages(ctx, out...)
	p.metrics.observe(topic, size, len(out), time.Since(now), err)
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered messages.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode kafka value: %w", err)
	}
	return b, nil
}

func parseCompression(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return kafka.Gzip
}
