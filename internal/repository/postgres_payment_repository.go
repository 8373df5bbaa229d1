package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

var _ PaymentRepository = (*PostgresPaymentRepository)(nil)

const paymentColumns = `
	id, user_id, plan_id, amount, currency, status,
	stripe_payment_intent_id, stripe_client_secret, failure_reason,
	paid_at, failed_at, refunded_at, created_at, updated_at
`

// Create creates a new payment record
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, user_id, plan_id, amount, currency, status,
			stripe_payment_intent_id, stripe_client_secret, failure_reason,
			paid_at, failed_at, refunded_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.PlanID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		nullString(payment.StripePaymentIntentID),
		nullString(payment.StripeClientSecret),
		nullString(payment.FailureReason),
		payment.PaidAt,
		payment.FailedAt,
		payment.RefundedAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrPaymentAlreadyExists
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByIntentID retrieves a payment by its processor intent ID
func (r *PostgresPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE stripe_payment_intent_id = $1`
	return scanPayment(r.db.Pool().QueryRow(ctx, query, intentID))
}

// ListByUser retrieves the user's payments, newest first
func (r *PostgresPaymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPaymentFromRows(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// MarkSucceededIfPending conditionally moves a pending payment to succeeded.
// Zero rows affected means another reconciler already finalized it.
func (r *PostgresPaymentRepository) MarkSucceededIfPending(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'succeeded', paid_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Pool().Exec(ctx, query, id, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkFailedIfPending conditionally moves a pending payment to failed
func (r *PostgresPaymentRepository) MarkFailedIfPending(ctx context.Context, id string, failedAt time.Time, reason string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'failed', failed_at = $2, failure_reason = $3, updated_at = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Pool().Exec(ctx, query, id, failedAt, nullString(reason))
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkCancelledIfPending conditionally moves a pending payment to cancelled
func (r *PostgresPaymentRepository) MarkCancelledIfPending(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment cancelled: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// nullString returns nil if string is empty, otherwise returns pointer to string
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var status string
	var intentID, clientSecret, failureReason *string

	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.PlanID,
		&payment.Amount,
		&payment.Currency,
		&status,
		&intentID,
		&clientSecret,
		&failureReason,
		&payment.PaidAt,
		&payment.FailedAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.Status = domain.PaymentStatus(status)
	if intentID != nil {
		payment.StripePaymentIntentID = *intentID
	}
	if clientSecret != nil {
		payment.StripeClientSecret = *clientSecret
	}
	if failureReason != nil {
		payment.FailureReason = *failureReason
	}

	return &payment, nil
}

func scanPaymentFromRows(rows pgx.Rows) (*domain.Payment, error) {
	var payment domain.Payment
	var status string
	var intentID, clientSecret, failureReason *string

	err := rows.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.PlanID,
		&payment.Amount,
		&payment.Currency,
		&status,
		&intentID,
		&clientSecret,
		&failureReason,
		&payment.PaidAt,
		&payment.FailedAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.Status = domain.PaymentStatus(status)
	if intentID != nil {
		payment.StripePaymentIntentID = *intentID
	}
	if clientSecret != nil {
		payment.StripeClientSecret = *clientSecret
	}
	if failureReason != nil {
		payment.FailureReason = *failureReason
	}

	return &payment, nil
}
