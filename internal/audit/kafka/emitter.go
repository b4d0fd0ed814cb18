package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"tillbook/internal/audit"
)

// Emitter publishes cash events to a Kafka topic, keyed by session ID so
// events for one session stay ordered within a partition.
type Emitter struct {
	client *kgo.Client
}

// New connects a Kafka producer for the given brokers and topic.
func New(brokers []string, topic string) (*Emitter, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &Emitter{client: client}, nil
}

func (e *Emitter) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cash event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.SessionID.String()),
		Value: payload,
	}
	if err := e.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce cash event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the producer.
func (e *Emitter) Close() {
	e.client.Close()
}
