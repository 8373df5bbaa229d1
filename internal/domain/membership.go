package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// MembershipStatus represents the status of a membership (matches DB ENUM)
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusCancelled MembershipStatus = "cancelled"
	MembershipStatusSuspended MembershipStatus = "suspended"
	MembershipStatusExpired   MembershipStatus = "expired"
)

// Membership represents a member's plan subscription for a fixed term
type Membership struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	PlanID             string           `json:"plan_id"`
	PaymentID          string           `json:"payment_id,omitempty"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	Status             MembershipStatus `json:"status"`
	AutoRenew          bool             `json:"auto_renew"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	SuspendedAt        *time.Time       `json:"suspended_at,omitempty"`
	SuspensionReason   string           `json:"suspension_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewMembership creates an active membership starting now for the given term
func NewMembership(userID, planID, paymentID string, termDays int) (*Membership, error) {
	if userID == "" {
		return nil, errors.New("user_id is required")
	}
	if planID == "" {
		return nil, errors.New("plan_id is required")
	}
	if termDays <= 0 {
		return nil, errors.New("term must be positive")
	}

	now := time.Now().UTC()
	return &Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlanID:    planID,
		PaymentID: paymentID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, termDays),
		Status:    MembershipStatusActive,
		AutoRenew: false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Cancel transitions an active membership to cancelled
func (m *Membership) Cancel(reason string) error {
	if m.Status != MembershipStatusActive {
		return ErrMembershipNotActive
	}
	now := time.Now().UTC()
	m.Status = MembershipStatusCancelled
	m.CancelledAt = &now
	m.CancellationReason = reason
	m.UpdatedAt = now
	return nil
}

// Suspend transitions an active membership to suspended
func (m *Membership) Suspend(reason string) error {
	if m.Status != MembershipStatusActive {
		return ErrMembershipNotActive
	}
	now := time.Now().UTC()
	m.Status = MembershipStatusSuspended
	m.SuspendedAt = &now
	m.SuspensionReason = reason
	m.UpdatedAt = now
	return nil
}

// Reactivate transitions a suspended membership back to active and clears
// the suspension audit fields
func (m *Membership) Reactivate() error {
	if m.Status != MembershipStatusSuspended {
		return ErrMembershipNotSuspended
	}
	m.Status = MembershipStatusActive
	m.SuspendedAt = nil
	m.SuspensionReason = ""
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// Extend pushes the end date out by the given number of calendar days
func (m *Membership) Extend(days int) error {
	if days <= 0 {
		return ErrInvalidExtension
	}
	m.EndDate = m.EndDate.AddDate(0, 0, days)
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true if the membership is active and not past its end date
func (m *Membership) IsActive(now time.Time) bool {
	return m.Status == MembershipStatusActive && m.EndDate.After(now)
}

// IsPastEnd returns true if the membership term has elapsed
func (m *Membership) IsPastEnd(now time.Time) bool {
	return m.EndDate.Before(now)
}

// DaysRemaining returns the number of whole-or-partial days until the end
// date, rounded up, never negative
func (m *Membership) DaysRemaining(now time.Time) int {
	remaining := m.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
