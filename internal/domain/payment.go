package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment (matches DB ENUM)
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment represents a membership purchase payment. Amounts are stored in
// minor units (pence for GBP) so there is no fractional-cent ambiguity.
type Payment struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"user_id"`
	PlanID                string        `json:"plan_id"`
	Amount                int64         `json:"amount"`
	Currency              string        `json:"currency"`
	Status                PaymentStatus `json:"status"`
	StripePaymentIntentID string        `json:"stripe_payment_intent_id,omitempty"`
	// Client secret is returned to the caller once at intent creation and
	// must never appear in logs or serialized entities
	StripeClientSecret string     `json:"-"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	FailedAt           *time.Time `json:"failed_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewPayment creates a pending payment for a plan purchase
func NewPayment(userID, planID string, amount int64, currency string) (*Payment, error) {
	if userID == "" {
		return nil, errors.New("user_id is required")
	}
	if planID == "" {
		return nil, errors.New("plan_id is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		currency = "gbp"
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlanID:    planID,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSucceeded marks the payment as succeeded
func (p *Payment) MarkSucceeded() error {
	if p.Status != PaymentStatusPending {
		return errors.New("payment must be pending to succeed")
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusSucceeded
	p.PaidAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkFailed marks the payment as failed with a reason
func (p *Payment) MarkFailed(reason string) error {
	if p.Status != PaymentStatusPending {
		return errors.New("payment must be pending to fail")
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.FailedAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkRefunded marks a succeeded payment as refunded. RefundedAt is set
// exactly once.
func (p *Payment) MarkRefunded() error {
	if p.Status != PaymentStatusSucceeded {
		return errors.New("only succeeded payments can be refunded")
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusRefunded
	p.RefundedAt = &now
	p.UpdatedAt = now
	return nil
}

// Cancel marks the payment as cancelled
func (p *Payment) Cancel() error {
	if p.Status != PaymentStatusPending {
		return errors.New("only pending payments can be cancelled")
	}
	p.Status = PaymentStatusCancelled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsPending returns true if the payment has not been reconciled yet
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsFinal returns true if the payment is in a terminal state. Succeeded is
// final for reconciliation purposes even though a refund may still follow.
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusSucceeded ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusCancelled ||
		p.Status == PaymentStatusRefunded
}

// SetStripeIntent records the processor intent handle on the payment
func (p *Payment) SetStripeIntent(intentID, clientSecret string) {
	p.StripePaymentIntentID = intentID
	p.StripeClientSecret = clientSecret
	p.UpdatedAt = time.Now().UTC()
}
