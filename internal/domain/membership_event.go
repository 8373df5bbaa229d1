package domain

import "time"

// MembershipEventType identifies a membership notification event
type MembershipEventType string

const (
	MembershipEventActivated    MembershipEventType = "membership.activated"
	MembershipEventCancelled    MembershipEventType = "membership.cancelled"
	MembershipEventExpiringSoon MembershipEventType = "membership.expiring_soon"
)

// MembershipEvent is the notification payload published when a membership
// changes state. Consumers (email, CRM sync) treat it as best-effort.
type MembershipEvent struct {
	EventID      string              `json:"event_id"`
	EventType    MembershipEventType `json:"event_type"`
	MembershipID string              `json:"membership_id"`
	UserID       string              `json:"user_id"`
	PlanID       string              `json:"plan_id"`
	PaymentID    string              `json:"payment_id,omitempty"`
	StartDate    time.Time           `json:"start_date"`
	EndDate      time.Time           `json:"end_date"`
	Status       MembershipStatus    `json:"status"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// NewMembershipEvent builds a notification event from a membership
func NewMembershipEvent(eventType MembershipEventType, membership *Membership, eventID string) *MembershipEvent {
	return &MembershipEvent{
		EventID:      eventID,
		EventType:    eventType,
		MembershipID: membership.ID,
		UserID:       membership.UserID,
		PlanID:       membership.PlanID,
		PaymentID:    membership.PaymentID,
		StartDate:    membership.StartDate,
		EndDate:      membership.EndDate,
		Status:       membership.Status,
		OccurredAt:   time.Now().UTC(),
	}
}

// Key returns the partition key for the event. Keying by user keeps a
// member's notifications ordered.
func (e *MembershipEvent) Key() string {
	return e.UserID
}
