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

// PostgresMembershipRepository implements MembershipRepository using
// PostgreSQL. The partial unique index on (user_id) WHERE status = 'active'
// is what guarantees at most one active membership per user even under
// concurrent activation.
type PostgresMembershipRepository struct {
	db *database.PostgresDB
}

// NewPostgresMembershipRepository creates a new PostgreSQL membership repository
func NewPostgresMembershipRepository(db *database.PostgresDB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

var _ MembershipRepository = (*PostgresMembershipRepository)(nil)

const membershipColumns = `
	id, user_id, plan_id, payment_id, start_date, end_date, status, auto_renew,
	cancelled_at, cancellation_reason, suspended_at, suspension_reason,
	created_at, updated_at
`

// Create creates a new membership record
func (r *PostgresMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (
			id, user_id, plan_id, payment_id, start_date, end_date, status, auto_renew,
			cancelled_at, cancellation_reason, suspended_at, suspension_reason,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		membership.ID,
		membership.UserID,
		membership.PlanID,
		nullString(membership.PaymentID),
		membership.StartDate,
		membership.EndDate,
		string(membership.Status),
		membership.AutoRenew,
		membership.CancelledAt,
		nullString(membership.CancellationReason),
		membership.SuspendedAt,
		nullString(membership.SuspensionReason),
		membership.CreatedAt,
		membership.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrActiveMembershipExists
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// GetByID retrieves a membership by ID
func (r *PostgresMembershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	return scanMembership(r.db.Pool().QueryRow(ctx, query, id))
}

// GetActiveByUser retrieves the user's active, non-expired membership. A
// lapsed row the sweeper has not flipped yet does not count.
func (r *PostgresMembershipRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 AND status = 'active' AND end_date > NOW()`
	return scanMembership(r.db.Pool().QueryRow(ctx, query, userID))
}

// ListByUser retrieves all memberships of a user, newest first
func (r *PostgresMembershipRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		membership, err := scanMembershipFromRows(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

// CancelIfActive conditionally moves an active membership to cancelled
func (r *PostgresMembershipRepository) CancelIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error) {
	query := `
		UPDATE memberships
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3, updated_at = $2
		WHERE id = $1 AND status = 'active'`

	result, err := r.db.Pool().Exec(ctx, query, id, at, nullString(reason))
	if err != nil {
		return false, fmt.Errorf("failed to cancel membership: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// SuspendIfActive conditionally moves an active membership to suspended
func (r *PostgresMembershipRepository) SuspendIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error) {
	query := `
		UPDATE memberships
		SET status = 'suspended', suspended_at = $2, suspension_reason = $3, updated_at = $2
		WHERE id = $1 AND status = 'active'`

	result, err := r.db.Pool().Exec(ctx, query, id, at, nullString(reason))
	if err != nil {
		return false, fmt.Errorf("failed to suspend membership: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ReactivateIfSuspended conditionally moves a suspended membership back to
// active and clears the suspension fields
func (r *PostgresMembershipRepository) ReactivateIfSuspended(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE memberships
		SET status = 'active', suspended_at = NULL, suspension_reason = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'suspended'`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to reactivate membership: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ExtendEndDate pushes the end date of an active membership out by whole
// calendar days
func (r *PostgresMembershipRepository) ExtendEndDate(ctx context.Context, id string, days int) (bool, error) {
	query := `
		UPDATE memberships
		SET end_date = end_date + make_interval(days => $2), updated_at = NOW()
		WHERE id = $1 AND status = 'active'`

	result, err := r.db.Pool().Exec(ctx, query, id, days)
	if err != nil {
		return false, fmt.Errorf("failed to extend membership: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ExpireActiveBefore flips every active membership past its end date to expired
func (r *PostgresMembershipRepository) ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE memberships
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND end_date < $1`

	result, err := r.db.Pool().Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire memberships: %w", err)
	}
	return result.RowsAffected(), nil
}

// ExpireLapsedForUser flips the user's lapsed active membership to expired
func (r *PostgresMembershipRepository) ExpireLapsedForUser(ctx context.Context, userID string, now time.Time) (bool, error) {
	query := `
		UPDATE memberships
		SET status = 'expired', updated_at = $2
		WHERE user_id = $1 AND status = 'active' AND end_date < $2`

	result, err := r.db.Pool().Exec(ctx, query, userID, now)
	if err != nil {
		return false, fmt.Errorf("failed to expire lapsed membership: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListExpiringSoon returns active memberships ending within the window
func (r *PostgresMembershipRepository) ListExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE status = 'active' AND end_date >= $1 AND end_date <= $2
		ORDER BY end_date`

	rows, err := r.db.Pool().Query(ctx, query, now, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		membership, err := scanMembershipFromRows(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var membership domain.Membership
	var status string
	var paymentID, cancellationReason, suspensionReason *string

	err := row.Scan(
		&membership.ID,
		&membership.UserID,
		&membership.PlanID,
		&paymentID,
		&membership.StartDate,
		&membership.EndDate,
		&status,
		&membership.AutoRenew,
		&membership.CancelledAt,
		&cancellationReason,
		&membership.SuspendedAt,
		&suspensionReason,
		&membership.CreatedAt,
		&membership.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	membership.Status = domain.MembershipStatus(status)
	if paymentID != nil {
		membership.PaymentID = *paymentID
	}
	if cancellationReason != nil {
		membership.CancellationReason = *cancellationReason
	}
	if suspensionReason != nil {
		membership.SuspensionReason = *suspensionReason
	}

	return &membership, nil
}

func scanMembershipFromRows(rows pgx.Rows) (*domain.Membership, error) {
	var membership domain.Membership
	var status string
	var paymentID, cancellationReason, suspensionReason *string

	err := rows.Scan(
		&membership.ID,
		&membership.UserID,
		&membership.PlanID,
		&paymentID,
		&membership.StartDate,
		&membership.EndDate,
		&status,
		&membership.AutoRenew,
		&membership.CancelledAt,
		&cancellationReason,
		&membership.SuspendedAt,
		&suspensionReason,
		&membership.CreatedAt,
		&membership.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	membership.Status = domain.MembershipStatus(status)
	if paymentID != nil {
		membership.PaymentID = *paymentID
	}
	if cancellationReason != nil {
		membership.CancellationReason = *cancellationReason
	}
	if suspensionReason != nil {
		membership.SuspensionReason = *suspensionReason
	}

	return &membership, nil
}
