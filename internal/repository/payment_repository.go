package repository

import (
	"context"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// PaymentRepository provides access to payment records. Status transitions
// out of pending are conditional updates: exactly one caller can move a
// payment to a terminal state, which is what makes reconciliation
// idempotent.
type PaymentRepository interface {
	// Create persists a new payment
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID loads a payment by ID
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByIntentID loads a payment by its processor intent ID
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)

	// ListByUser returns the user's payment history, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error)

	// MarkSucceededIfPending moves a pending payment to succeeded. Returns
	// false if the payment was no longer pending.
	MarkSucceededIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// MarkFailedIfPending moves a pending payment to failed with a reason.
	// Returns false if the payment was no longer pending.
	MarkFailedIfPending(ctx context.Context, id string, failedAt time.Time, reason string) (bool, error)

	// MarkCancelledIfPending moves a pending payment to cancelled. Returns
	// false if the payment was no longer pending.
	MarkCancelledIfPending(ctx context.Context, id string) (bool, error)
}
