package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/kafka"
)

// EventPublisher defines the interface for publishing membership
// notification events. Publishing is best-effort: callers log failures and
// carry on.
type EventPublisher interface {
	// PublishMembershipActivated publishes a membership activation event
	PublishMembershipActivated(ctx context.Context, membership *domain.Membership) error

	// PublishMembershipCancelled publishes a membership cancellation event
	PublishMembershipCancelled(ctx context.Context, membership *domain.Membership) error

	// PublishMembershipExpiringSoon publishes a renewal-notice event
	PublishMembershipExpiringSoon(ctx context.Context, membership *domain.Membership) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "membership-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "koko-backend"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "koko-backend-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

var _ EventPublisher = (*KafkaEventPublisher)(nil)

// PublishMembershipActivated publishes a membership activation event
func (p *KafkaEventPublisher) PublishMembershipActivated(ctx context.Context, membership *domain.Membership) error {
	return p.publishEvent(ctx, domain.MembershipEventActivated, membership)
}

// PublishMembershipCancelled publishes a membership cancellation event
func (p *KafkaEventPublisher) PublishMembershipCancelled(ctx context.Context, membership *domain.Membership) error {
	return p.publishEvent(ctx, domain.MembershipEventCancelled, membership)
}

// PublishMembershipExpiringSoon publishes a renewal-notice event
func (p *KafkaEventPublisher) PublishMembershipExpiringSoon(ctx context.Context, membership *domain.Membership) error {
	return p.publishEvent(ctx, domain.MembershipEventExpiringSoon, membership)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType domain.MembershipEventType, membership *domain.Membership) error {
	eventID := uuid.New().String()
	event := domain.NewMembershipEvent(eventType, membership, eventID)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     eventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	msg := &kafka.Message{
		Topic:     p.topic,
		Key:       event.Key(),
		Value:     value,
		Headers:   headers,
		Timestamp: time.Now(),
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
// and for deployments without Kafka
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

var _ EventPublisher = (*NoOpEventPublisher)(nil)

// PublishMembershipActivated is a no-op
func (p *NoOpEventPublisher) PublishMembershipActivated(ctx context.Context, membership *domain.Membership) error {
	return nil
}

// PublishMembershipCancelled is a no-op
func (p *NoOpEventPublisher) PublishMembershipCancelled(ctx context.Context, membership *domain.Membership) error {
	return nil
}

// PublishMembershipExpiringSoon is a no-op
func (p *NoOpEventPublisher) PublishMembershipExpiringSoon(ctx context.Context, membership *domain.Membership) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
