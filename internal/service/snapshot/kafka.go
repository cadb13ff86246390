package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"FinDash/internal/domain/models"
)

// ErrNoMessage is returned by KafkaSource before the first export arrives.
var ErrNoMessage = errors.New("snapshot: no export received yet")

// KafkaSource keeps the most recent export published on a topic. It is a
// kafka.MessageHandler; Fetch decodes whatever arrived last.
type KafkaSource struct {
	topic    string
	latest   atomic.Pointer[[]byte]
	onUpdate atomic.Pointer[func()]
}

// NewKafkaSource creates a source for topic.
func NewKafkaSource(topic string) *KafkaSource {
	return &KafkaSource{topic: topic}
}

// OnUpdate registers fn to run after every accepted message.
func (s *KafkaSource) OnUpdate(fn func()) {
	s.onUpdate.Store(&fn)
}

// Topic implements kafka.MessageHandler.
func (s *KafkaSource) Topic() string { return s.topic }

// Handle implements kafka.MessageHandler. Payloads that do not decode are
// rejected so the consumer can retry or dead-letter them.
func (s *KafkaSource) Handle(_ context.Context, data []byte) error {
	if _, err := Decode(data); err != nil {
		return fmt.Errorf("decode kafka snapshot: %w", err)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.latest.Store(&buf)

	if fn := s.onUpdate.Load(); fn != nil {
		(*fn)()
	}
	return nil
}

func (s *KafkaSource) Location() string { return kafkaScheme + s.topic }

// Fetch decodes the last received export.
func (s *KafkaSource) Fetch(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.latest.Load()
	if p == nil {
		return nil, ErrNoMessage
	}
	return Decode(*p)
}
