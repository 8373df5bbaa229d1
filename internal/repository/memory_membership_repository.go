package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MemoryMembershipRepository is an in-memory MembershipRepository for tests
// and local development. Create enforces the one-active-per-user rule under
// the mutex, mirroring the partial unique index of the SQL implementation.
type MemoryMembershipRepository struct {
	mu          sync.Mutex
	memberships map[string]*domain.Membership
}

// NewMemoryMembershipRepository creates an empty in-memory membership repository
func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{
		memberships: make(map[string]*domain.Membership),
	}
}

var _ MembershipRepository = (*MemoryMembershipRepository)(nil)

// Create persists a new membership
func (r *MemoryMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if membership.Status == domain.MembershipStatusActive {
		for _, existing := range r.memberships {
			if existing.UserID == membership.UserID && existing.Status == domain.MembershipStatusActive {
				return domain.ErrActiveMembershipExists
			}
		}
	}

	r.memberships[membership.ID] = copyMembership(membership)
	return nil
}

// GetByID retrieves a membership by ID
func (r *MemoryMembershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	return copyMembership(membership), nil
}

// GetActiveByUser retrieves the user's active, non-expired membership. A
// lapsed row the sweeper has not flipped yet does not count.
func (r *MemoryMembershipRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, membership := range r.memberships {
		if membership.UserID == userID &&
			membership.Status == domain.MembershipStatusActive &&
			membership.EndDate.After(now) {
			return copyMembership(membership), nil
		}
	}
	return nil, domain.ErrMembershipNotFound
}

// ListByUser retrieves all memberships of a user, newest first
func (r *MemoryMembershipRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var memberships []*domain.Membership
	for _, membership := range r.memberships {
		if membership.UserID == userID {
			memberships = append(memberships, copyMembership(membership))
		}
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].CreatedAt.After(memberships[j].CreatedAt)
	})

	return memberships, nil
}

// CancelIfActive conditionally moves an active membership to cancelled
func (r *MemoryMembershipRepository) CancelIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok || membership.Status != domain.MembershipStatusActive {
		return false, nil
	}

	membership.Status = domain.MembershipStatusCancelled
	membership.CancelledAt = &at
	membership.CancellationReason = reason
	membership.UpdatedAt = at
	return true, nil
}

// SuspendIfActive conditionally moves an active membership to suspended
func (r *MemoryMembershipRepository) SuspendIfActive(ctx context.Context, id string, at time.Time, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok || membership.Status != domain.MembershipStatusActive {
		return false, nil
	}

	membership.Status = domain.MembershipStatusSuspended
	membership.SuspendedAt = &at
	membership.SuspensionReason = reason
	membership.UpdatedAt = at
	return true, nil
}

// ReactivateIfSuspended conditionally moves a suspended membership back to active
func (r *MemoryMembershipRepository) ReactivateIfSuspended(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok || membership.Status != domain.MembershipStatusSuspended {
		return false, nil
	}

	membership.Status = domain.MembershipStatusActive
	membership.SuspendedAt = nil
	membership.SuspensionReason = ""
	membership.UpdatedAt = time.Now()
	return true, nil
}

// ExtendEndDate pushes the end date of an active membership out by whole
// calendar days
func (r *MemoryMembershipRepository) ExtendEndDate(ctx context.Context, id string, days int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[id]
	if !ok || membership.Status != domain.MembershipStatusActive {
		return false, nil
	}

	membership.EndDate = membership.EndDate.AddDate(0, 0, days)
	membership.UpdatedAt = time.Now()
	return true, nil
}

// ExpireActiveBefore flips every active membership past its end date to expired
func (r *MemoryMembershipRepository) ExpireActiveBefore(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired int64
	for _, membership := range r.memberships {
		if membership.Status == domain.MembershipStatusActive && membership.EndDate.Before(now) {
			membership.Status = domain.MembershipStatusExpired
			membership.UpdatedAt = now
			expired++
		}
	}

	return expired, nil
}

// ExpireLapsedForUser flips the user's lapsed active membership to expired
func (r *MemoryMembershipRepository) ExpireLapsedForUser(ctx context.Context, userID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flipped := false
	for _, membership := range r.memberships {
		if membership.UserID == userID &&
			membership.Status == domain.MembershipStatusActive &&
			membership.EndDate.Before(now) {
			membership.Status = domain.MembershipStatusExpired
			membership.UpdatedAt = now
			flipped = true
		}
	}

	return flipped, nil
}

// ListExpiringSoon returns active memberships ending within the window
func (r *MemoryMembershipRepository) ListExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(within)
	var memberships []*domain.Membership
	for _, membership := range r.memberships {
		if membership.Status != domain.MembershipStatusActive {
			continue
		}
		if membership.EndDate.Before(now) || membership.EndDate.After(cutoff) {
			continue
		}
		memberships = append(memberships, copyMembership(membership))
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].EndDate.Before(memberships[j].EndDate)
	})

	return memberships, nil
}

func copyMembership(membership *domain.Membership) *domain.Membership {
	copied := *membership
	if membership.CancelledAt != nil {
		cancelledAt := *membership.CancelledAt
		copied.CancelledAt = &cancelledAt
	}
	if membership.SuspendedAt != nil {
		suspendedAt := *membership.SuspendedAt
		copied.SuspendedAt = &suspendedAt
	}
	return &copied
}
