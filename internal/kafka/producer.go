// internal/kafka/producer.go
package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// Publisher is what the rest of the service sees. A nil Publisher means
// event publishing is disabled (no broker configured).
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// messageWriter abstracts kafka.Writer so tests can swap in a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes shipment events to a Kafka topic so downstream
// services (dashboard, status tracker) get real-time updates.
type Producer struct {
	writer messageWriter
}

// NewProducer initializes a Kafka writer for the given broker and topic.
// LeastBytes spreads messages evenly across partitions; the shipment ID is
// used as the key so events for one shipment stay ordered.
func NewProducer(brokerURL, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerURL),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// NewProducerWithWriter injects a custom writer. Used by tests.
func NewProducerWithWriter(w messageWriter) *Producer {
	return &Producer{writer: w}
}

// Publish JSON-encodes the event payload and writes it to the topic.
func (p *Producer) Publish(ctx context.Context, key string, value interface{}) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		log.Println("[Kafka] failed to marshal payload:", err)
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: bytes,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Println("[Kafka] write error:", err)
		return err
	}
	return nil
}

// Close shuts down the writer to free resources.
func (p *Producer) Close() error {
	return p.writer.Close()
}
