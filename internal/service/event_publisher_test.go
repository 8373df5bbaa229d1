package service

import (
	"context"
	"testing"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/kafka"
)

func TestNewKafkaEventPublisher_ConfigValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewKafkaEventPublisher(ctx, nil); err == nil {
		t.Error("nil config should error")
	}
	if _, err := NewKafkaEventPublisher(ctx, &EventPublisherConfig{}); err == nil {
		t.Error("missing brokers should error")
	}
}

func TestMembershipEvent_PartitionKey(t *testing.T) {
	membership, err := domain.NewMembership("user-001", "plan-001", "payment-001", 365)
	if err != nil {
		t.Fatalf("NewMembership() error = %v", err)
	}
	event := domain.NewMembershipEvent(domain.MembershipEventActivated, membership, "evt-001")

	// Keyed by user so one member's notifications land on one partition
	msg := &kafka.Message{
		Topic: "membership-events",
		Key:   event.Key(),
	}
	if msg.Key != "user-001" {
		t.Errorf("Key = %q, want user-001", msg.Key)
	}
	if event.MembershipID != membership.ID || event.Status != domain.MembershipStatusActive {
		t.Errorf("event = %+v, want membership %s active", event, membership.ID)
	}
}

func TestNoOpEventPublisher(t *testing.T) {
	ctx := context.Background()
	p := NewNoOpEventPublisher()
	membership, _ := domain.NewMembership("user-001", "plan-001", "", 365)

	if err := p.PublishMembershipActivated(ctx, membership); err != nil {
		t.Errorf("PublishMembershipActivated() error = %v", err)
	}
	if err := p.PublishMembershipCancelled(ctx, membership); err != nil {
		t.Errorf("PublishMembershipCancelled() error = %v", err)
	}
	if err := p.PublishMembershipExpiringSoon(ctx, membership); err != nil {
		t.Errorf("PublishMembershipExpiringSoon() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
