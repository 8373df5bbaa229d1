package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MemoryPaymentRepository is an in-memory PaymentRepository for tests and
// local development. The MarkXIfPending methods apply the same pending-only
// guard as the SQL implementation, so at-most-once finalization can be
// exercised without a database.
type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
	byIntent map[string]string // intent ID -> payment ID
}

// NewMemoryPaymentRepository creates an empty in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]*domain.Payment),
		byIntent: make(map[string]string),
	}
}

var _ PaymentRepository = (*MemoryPaymentRepository)(nil)

// Create persists a new payment
func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return domain.ErrPaymentAlreadyExists
	}
	if payment.StripePaymentIntentID != "" {
		if _, exists := r.byIntent[payment.StripePaymentIntentID]; exists {
			return domain.ErrPaymentAlreadyExists
		}
		r.byIntent[payment.StripePaymentIntentID] = payment.ID
	}

	copied := copyPayment(payment)
	r.payments[payment.ID] = copied
	return nil
}

// GetByID retrieves a payment by ID
func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return copyPayment(payment), nil
}

// GetByIntentID retrieves a payment by its processor intent ID
func (r *MemoryPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byIntent[intentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return copyPayment(r.payments[id]), nil
}

// ListByUser retrieves the user's payments, newest first
func (r *MemoryPaymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payments []*domain.Payment
	for _, payment := range r.payments {
		if payment.UserID == userID {
			payments = append(payments, copyPayment(payment))
		}
	}

	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})

	return payments, nil
}

// MarkSucceededIfPending conditionally moves a pending payment to succeeded
func (r *MemoryPaymentRepository) MarkSucceededIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok || payment.Status != domain.PaymentStatusPending {
		return false, nil
	}

	payment.Status = domain.PaymentStatusSucceeded
	payment.PaidAt = &paidAt
	payment.UpdatedAt = paidAt
	return true, nil
}

// MarkFailedIfPending conditionally moves a pending payment to failed
func (r *MemoryPaymentRepository) MarkFailedIfPending(ctx context.Context, id string, failedAt time.Time, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok || payment.Status != domain.PaymentStatusPending {
		return false, nil
	}

	payment.Status = domain.PaymentStatusFailed
	payment.FailedAt = &failedAt
	payment.FailureReason = reason
	payment.UpdatedAt = failedAt
	return true, nil
}

// MarkCancelledIfPending conditionally moves a pending payment to cancelled
func (r *MemoryPaymentRepository) MarkCancelledIfPending(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok || payment.Status != domain.PaymentStatusPending {
		return false, nil
	}

	payment.Status = domain.PaymentStatusCancelled
	payment.UpdatedAt = time.Now()
	return true, nil
}

func copyPayment(payment *domain.Payment) *domain.Payment {
	copied := *payment
	if payment.PaidAt != nil {
		paidAt := *payment.PaidAt
		copied.PaidAt = &paidAt
	}
	if payment.FailedAt != nil {
		failedAt := *payment.FailedAt
		copied.FailedAt = &failedAt
	}
	if payment.RefundedAt != nil {
		refundedAt := *payment.RefundedAt
		copied.RefundedAt = &refundedAt
	}
	return &copied
}
