package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/circuitbreaker"
)

// Event types
const (
	TypeQuoteCalculated = "pricing.quote.calculated"
)

// Event represents a domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Aggregate string                 `json:"aggregate"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Version   int                    `json:"version"`
}

// NewEvent creates a new event. aggregate identifies the entity the event is
// about and is used as the partition key.
func NewEvent(eventType, aggregate string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Aggregate: aggregate,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		Version:   1,
	}
}

// Publisher defines the interface for publishing events
type Publisher interface {
	// Publish publishes an event
	Publish(ctx context.Context, event *Event) error

	// PublishBatch publishes multiple events
	PublishBatch(ctx context.Context, events []*Event) error

	// Close closes the publisher
	Close() error
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event *Event) error         { return nil }
func (NoopPublisher) PublishBatch(ctx context.Context, events []*Event) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }

// KafkaPublisher publishes events to a single Kafka topic
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewProducerConfig returns the sarama configuration used for event publishing
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // Must be true for SyncProducer
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second
	return cfg
}

// NewKafkaPublisher connects a synchronous producer to brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer created", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish publishes an event
func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	msg, err := p.message(event)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	p.logger.Debug("Event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// PublishBatch publishes multiple events
func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*Event) error {
	msgs := make([]*sarama.ProducerMessage, 0, len(events))
	for _, event := range events {
		msg, err := p.message(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(msgs), err)
	}
	return nil
}

// Close closes the publisher
func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

func (p *KafkaPublisher) message(event *Event) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	return &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Aggregate),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}, nil
}

// breakerPublisher skips publishing while the circuit of a failing broker is open
type breakerPublisher struct {
	Publisher
	breaker *circuitbreaker.CircuitBreaker
}

// WithCircuitBreaker guards publisher with breaker. While the circuit is open,
// Publish and PublishBatch return circuitbreaker.ErrCircuitOpen at once.
func WithCircuitBreaker(publisher Publisher, breaker *circuitbreaker.CircuitBreaker) Publisher {
	return &breakerPublisher{Publisher: publisher, breaker: breaker}
}

func (p *breakerPublisher) Publish(ctx context.Context, event *Event) error {
	return p.breaker.Execute(func() error {
		return p.Publisher.Publish(ctx, event)
	})
}

func (p *breakerPublisher) PublishBatch(ctx context.Context, events []*Event) error {
	return p.breaker.Execute(func() error {
		return p.Publisher.PublishBatch(ctx, events)
	})
}
