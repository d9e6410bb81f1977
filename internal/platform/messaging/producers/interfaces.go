package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes a keyed, JSON-serializable value to a topic.
// The outbox publisher depends on this rather than on a concrete producer.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// KafkaWriter is the kafka.Writer surface the producer needs, extracted so
// tests can substitute a double.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
