package repository

import (
	"context"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
)

// Publisher is the subset of the kafka producer the archive uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaArchive publishes every applied snapshot as JSON, keyed by symbol.
// The payload decodes back through a kafka:// snapshot source.
type KafkaArchive struct {
	producer Publisher
	topic    string
}

// NewKafkaArchive creates an archive publishing to topic.
func NewKafkaArchive(producer Publisher, topic string) *KafkaArchive {
	return &KafkaArchive{producer: producer, topic: topic}
}

var _ repository.SnapshotArchive = (*KafkaArchive)(nil)

func (k *KafkaArchive) Archive(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return nil
	}
	return k.producer.Publish(ctx, k.topic, []byte(snap.Symbol), snap)
}

// Close is a no-op; the producer is shared and closed by its owner.
func (k *KafkaArchive) Close() error { return nil }
