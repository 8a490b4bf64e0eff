package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// Kafka writes each event to the topic of the same name, keyed for partition affinity.
type Kafka struct {
	w *kafkaGo.Writer
}

// NewKafka returns an async publisher: Publish only enqueues, delivery errors are logged.
func NewKafka(brokers []string) *Kafka {
	return &Kafka{w: &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Balancer:               &kafkaGo.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           10 * time.Millisecond,
		Completion:             logFailed,
	}}
}

func logFailed(messages []kafkaGo.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		log.Printf("[Events] kafka deliver %s key=%s failed: %v", m.Topic, m.Key, err)
	}
}

func (k *Kafka) Publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (k *Kafka) Close() error { return k.w.Close() }
