package kafka

import (
	"context"
	"encoding/json"
	"testing"

	skafka "github.com/segmentio/kafka-go"
)

// fakeWriter records every message written.
type fakeWriter struct {
	msgs []skafka.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...skafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewProducerWithWriter(fw)

	event := map[string]string{"event": "shipment.created", "trackingNumber": "AUTO-1"}
	if err := p.Publish(context.Background(), "AUTO-1", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fw.msgs))
	}
	if string(fw.msgs[0].Key) != "AUTO-1" {
		t.Errorf("key = %s, want AUTO-1", fw.msgs[0].Key)
	}

	var decoded map[string]string
	if err := json.Unmarshal(fw.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if decoded["trackingNumber"] != "AUTO-1" {
		t.Errorf("payload = %v", decoded)
	}
}

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	fw := &fakeWriter{}
	p := NewProducerWithWriter(fw)

	if err := p.Publish(context.Background(), "k", make(chan int)); err == nil {
		t.Fatal("expected a marshal error")
	}
	if len(fw.msgs) != 0 {
		t.Fatalf("unencodable payload still written")
	}
}
