package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/metrics"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

// MembershipService manages the membership lifecycle. Guarded transitions
// (cancel, suspend, reactivate) are conditional on the current status;
// losing the condition is a Conflict, not a silent no-op.
type MembershipService interface {
	// GetMembership retrieves a membership by ID
	GetMembership(ctx context.Context, membershipID string) (*domain.Membership, error)

	// GetUserMemberships returns all memberships of a user, newest first
	GetUserMemberships(ctx context.Context, userID string) ([]*domain.Membership, error)

	// CancelMembership moves an active membership to cancelled
	CancelMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error)

	// SuspendMembership moves an active membership to suspended
	SuspendMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error)

	// ReactivateMembership moves a suspended membership back to active
	ReactivateMembership(ctx context.Context, membershipID string) (*domain.Membership, error)

	// ExtendMembership pushes the end date of an active membership out by
	// whole calendar days
	ExtendMembership(ctx context.Context, membershipID string, days int) (*domain.Membership, error)

	// GetMembershipStatus summarizes the user's standing
	GetMembershipStatus(ctx context.Context, userID string) (*dto.MembershipStatusResponse, error)

	// UpdateExpiredMemberships batch-expires active memberships past their end
	// date and returns the count
	UpdateExpiredMemberships(ctx context.Context) (int64, error)

	// GetExpiringMemberships returns active memberships ending within N days
	GetExpiringMemberships(ctx context.Context, withinDays int) ([]*domain.Membership, error)
}

// membershipService implements MembershipService
type membershipService struct {
	membershipRepo repository.MembershipRepository
	eventPublisher EventPublisher
	expiringDays   int
}

// MembershipServiceConfig contains configuration for the membership service
type MembershipServiceConfig struct {
	// ExpiringSoonDays is the default renewal-notice window
	ExpiringSoonDays int
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	eventPublisher EventPublisher,
	cfg *MembershipServiceConfig,
) MembershipService {
	expiringDays := 7
	if cfg != nil && cfg.ExpiringSoonDays > 0 {
		expiringDays = cfg.ExpiringSoonDays
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &membershipService{
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
		expiringDays:   expiringDays,
	}
}

// GetMembership retrieves a membership by ID
func (s *membershipService) GetMembership(ctx context.Context, membershipID string) (*domain.Membership, error) {
	if membershipID == "" {
		return nil, domain.ErrMembershipNotFound
	}
	return s.membershipRepo.GetByID(ctx, membershipID)
}

// GetUserMemberships returns all memberships of a user, newest first
func (s *membershipService) GetUserMemberships(ctx context.Context, userID string) ([]*domain.Membership, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	return s.membershipRepo.ListByUser(ctx, userID)
}

// CancelMembership moves an active membership to cancelled
func (s *membershipService) CancelMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.membership.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("membership_id", membershipID))

	if _, err := s.membershipRepo.GetByID(ctx, membershipID); err != nil {
		return nil, err
	}

	won, err := s.membershipRepo.CancelIfActive(ctx, membershipID, time.Now().UTC(), reason)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrMembershipNotActive
	}

	membership, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	metrics.RecordMembershipCancelled(ctx, reason)
	logger.InfoCtx(ctx, "membership cancelled",
		zap.String("membership_id", membershipID),
		zap.String("reason", reason),
	)

	if err := s.eventPublisher.PublishMembershipCancelled(ctx, membership); err != nil {
		logger.WarnCtx(ctx, "failed to publish membership cancelled event",
			zap.String("membership_id", membershipID),
			zap.Error(err),
		)
	}

	return membership, nil
}

// SuspendMembership moves an active membership to suspended
func (s *membershipService) SuspendMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.membership.suspend")
	defer span.End()
	span.SetAttributes(attribute.String("membership_id", membershipID))

	if _, err := s.membershipRepo.GetByID(ctx, membershipID); err != nil {
		return nil, err
	}

	won, err := s.membershipRepo.SuspendIfActive(ctx, membershipID, time.Now().UTC(), reason)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrMembershipNotActive
	}

	logger.InfoCtx(ctx, "membership suspended",
		zap.String("membership_id", membershipID),
		zap.String("reason", reason),
	)

	return s.membershipRepo.GetByID(ctx, membershipID)
}

// ReactivateMembership moves a suspended membership back to active
func (s *membershipService) ReactivateMembership(ctx context.Context, membershipID string) (*domain.Membership, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.membership.reactivate")
	defer span.End()
	span.SetAttributes(attribute.String("membership_id", membershipID))

	if _, err := s.membershipRepo.GetByID(ctx, membershipID); err != nil {
		return nil, err
	}

	won, err := s.membershipRepo.ReactivateIfSuspended(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrMembershipNotSuspended
	}

	logger.InfoCtx(ctx, "membership reactivated",
		zap.String("membership_id", membershipID),
	)

	return s.membershipRepo.GetByID(ctx, membershipID)
}

// ExtendMembership pushes the end date of an active membership out by whole
// calendar days
func (s *membershipService) ExtendMembership(ctx context.Context, membershipID string, days int) (*domain.Membership, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.membership.extend")
	defer span.End()
	span.SetAttributes(
		attribute.String("membership_id", membershipID),
		attribute.Int("days", days),
	)

	if days <= 0 {
		return nil, domain.ErrInvalidExtension
	}

	if _, err := s.membershipRepo.GetByID(ctx, membershipID); err != nil {
		return nil, err
	}

	won, err := s.membershipRepo.ExtendEndDate(ctx, membershipID, days)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrMembershipNotActive
	}

	logger.InfoCtx(ctx, "membership extended",
		zap.String("membership_id", membershipID),
		zap.Int("days", days),
	)

	return s.membershipRepo.GetByID(ctx, membershipID)
}

// GetMembershipStatus summarizes the user's standing
func (s *membershipService) GetMembershipStatus(ctx context.Context, userID string) (*dto.MembershipStatusResponse, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	membership, err := s.membershipRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return &dto.MembershipStatusResponse{
				HasActiveMembership: false,
				DaysRemaining:       0,
			}, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	return &dto.MembershipStatusResponse{
		HasActiveMembership: membership.IsActive(now),
		DaysRemaining:       membership.DaysRemaining(now),
		MembershipID:        membership.ID,
		PlanID:              membership.PlanID,
		EndDate:             membership.EndDate.Format(time.RFC3339),
	}, nil
}

// UpdateExpiredMemberships batch-expires active memberships past their end date
func (s *membershipService) UpdateExpiredMemberships(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.membership.update_expired")
	defer span.End()

	expired, err := s.membershipRepo.ExpireActiveBefore(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		metrics.RecordMembershipsExpired(ctx, expired)
		logger.InfoCtx(ctx, "expired memberships",
			zap.Int64("count", expired),
		)
	}

	return expired, nil
}

// GetExpiringMemberships returns active memberships ending within N days
func (s *membershipService) GetExpiringMemberships(ctx context.Context, withinDays int) ([]*domain.Membership, error) {
	if withinDays <= 0 {
		withinDays = s.expiringDays
	}

	within := time.Duration(withinDays) * 24 * time.Hour
	return s.membershipRepo.ListExpiringSoon(ctx, time.Now().UTC(), within)
}
