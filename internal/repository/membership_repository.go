package repository

import (
	"context"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MembershipRepository provides access to membership records. Guarded
// lifecycle transitions are conditional updates on the status column; the
// one-active-membership-per-user rule is enforced by a partial unique index
// so a second concurrent activation fails at the persistence layer.
type MembershipRepository interface {
	// Create persists a new membership. Returns
	// domain.ErrActiveMembershipExists if the user already has an active one.
	Create(ctx context.Context, membership *domain.Membership) error

	// GetByID loads a membership by ID
	GetByID(ctx context.Context, id string) (*domain.Membership, error)

	// GetActiveByUser returns the user's active, non-expired membership, or
	// domain.ErrMembershipNotFound if there is none. A lapsed row the sweeper
	// has not flipped yet does not count.
	GetActiveByUser(ctx context.Context, userID string) (*domain.Membership, error)

	// ListByUser returns all memberships of a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error)

	// CancelIfActive moves an active membership to cancelled. Returns false
	// if the membership was not active.
	CancelIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error)

	// SuspendIfActive moves an active membership to suspended. Returns false
	// if the membership was not active.
	SuspendIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error)

	// ReactivateIfSuspended moves a suspended membership back to active and
	// clears the suspension fields. Returns false if it was not suspended.
	ReactivateIfSuspended(ctx context.Context, id string) (bool, error)

	// ExtendEndDate pushes the end date of an active membership out by the
	// given number of calendar days. Returns false if the membership is not
	// active.
	ExtendEndDate(ctx context.Context, id string, days int) (bool, error)

	// ExpireActiveBefore flips every active membership whose end date is
	// before now to expired. Returns the number updated.
	ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error)

	// ExpireLapsedForUser flips the user's lapsed active membership to
	// expired. Returns true if a row was flipped. Activation calls this so
	// the one-active-per-user index admits the fresh membership.
	ExpireLapsedForUser(ctx context.Context, userID string, now time.Time) (bool, error)

	// ListExpiringSoon returns active memberships ending within the window
	ListExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*domain.Membership, error)
}
