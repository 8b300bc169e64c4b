// Package events publishes order lifecycle events for downstream consumers
// (kitchen display, delivery tracking).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	OrderCreated       EventType = "order.created"
	OrderUpdated       EventType = "order.updated"
	OrderStatusChanged EventType = "order.status_changed"
	OrderDeleted       EventType = "order.deleted"
)

type OrderEvent struct {
	Type           EventType `json:"type"`
	OrderID        int64     `json:"order_id"`
	OwnerID        string    `json:"owner_id"`
	Actor          string    `json:"actor"`
	PizzaSize      string    `json:"pizza_size,omitempty"`
	Quantity       int       `json:"quantity,omitempty"`
	Status         string    `json:"order_status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher sends order events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// Writer is the subset of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish keys messages by order id so every event of one order lands on
// the same partition, in order.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }
