// Package events publishes domain events (order created, paid, status changes) to a broker.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"go-storefront/pkg/config"
)

const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderStatusUpdated = "order.status_updated"
)

// Publisher sends payload, JSON encoded, under topic. key groups related events.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }

// New builds the publisher selected by cfg.Driver.
func New(cfg config.EventsConfig) (Publisher, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return Nop{}, nil
	case "amqp", "rabbitmq":
		return NewAMQP(cfg.URL, cfg.Exchange)
	case "kafka":
		return NewKafka(cfg.Brokers), nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.Driver)
	}
}

// Emit publishes and logs failures; events never fail the caller.
func Emit(ctx context.Context, p Publisher, topic, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, payload); err != nil {
		log.Printf("[Events] publish %s key=%s failed: %v", topic, key, err)
	}
}

// Message is one captured event.
type Message struct {
	Topic   string
	Key     string
	Payload any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, topic, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Topics lists the topics published so far, in order.
func (r *Recorder) Topics() []string {
	var topics []string
	for _, m := range r.Messages() {
		topics = append(topics, m.Topic)
	}
	return topics
}
