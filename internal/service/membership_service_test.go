package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
)

func newMembershipFixture(t *testing.T) (MembershipService, *repository.MemoryMembershipRepository, *MockEventPublisher) {
	t.Helper()
	repo := repository.NewMemoryMembershipRepository()
	publisher := &MockEventPublisher{}
	svc := NewMembershipService(repo, publisher, &MembershipServiceConfig{ExpiringSoonDays: 7})
	return svc, repo, publisher
}

func seedActiveMembership(t *testing.T, repo *repository.MemoryMembershipRepository, userID string) *domain.Membership {
	t.Helper()
	return seedMembershipEnding(t, repo, userID, time.Time{})
}

// seedMembershipEnding creates an active membership; a non-zero endDate
// overrides the default one-year term before it is persisted
func seedMembershipEnding(t *testing.T, repo *repository.MemoryMembershipRepository, userID string, endDate time.Time) *domain.Membership {
	t.Helper()
	membership, err := domain.NewMembership(userID, "plan-001", "payment-001", 365)
	if err != nil {
		t.Fatalf("NewMembership() error = %v", err)
	}
	if !endDate.IsZero() {
		membership.EndDate = endDate
	}
	if err := repo.Create(context.Background(), membership); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return membership
}

func TestMembershipService_CancelMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels an active membership and publishes", func(t *testing.T) {
		svc, repo, publisher := newMembershipFixture(t)
		published := 0
		publisher.PublishMembershipCancelledFunc = func(ctx context.Context, membership *domain.Membership) error {
			published++
			return nil
		}
		m := seedActiveMembership(t, repo, "user-001")

		got, err := svc.CancelMembership(ctx, m.ID, "moving abroad")
		if err != nil {
			t.Fatalf("CancelMembership() error = %v", err)
		}
		if got.Status != domain.MembershipStatusCancelled {
			t.Errorf("Status = %v, want cancelled", got.Status)
		}
		if got.CancelledAt == nil || got.CancellationReason != "moving abroad" {
			t.Errorf("audit fields = (%v, %q), want set", got.CancelledAt, got.CancellationReason)
		}
		if published != 1 {
			t.Errorf("published = %d, want 1", published)
		}
	})

	t.Run("second cancel is a conflict", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")
		_, _ = svc.CancelMembership(ctx, m.ID, "first")

		_, err := svc.CancelMembership(ctx, m.ID, "second")
		if !errors.Is(err, domain.ErrMembershipNotActive) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotActive)
		}
	})

	t.Run("missing membership reports not found, not conflict", func(t *testing.T) {
		svc, _, _ := newMembershipFixture(t)
		_, err := svc.CancelMembership(ctx, "ghost", "reason")
		if !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotFound)
		}
	})

	t.Run("publisher failure does not fail the cancel", func(t *testing.T) {
		svc, repo, publisher := newMembershipFixture(t)
		publisher.PublishMembershipCancelledFunc = func(ctx context.Context, membership *domain.Membership) error {
			return errors.New("broker unavailable")
		}
		m := seedActiveMembership(t, repo, "user-001")

		got, err := svc.CancelMembership(ctx, m.ID, "reason")
		if err != nil {
			t.Fatalf("CancelMembership() error = %v", err)
		}
		if got.Status != domain.MembershipStatusCancelled {
			t.Errorf("Status = %v, want cancelled", got.Status)
		}
	})
}

func TestMembershipService_SuspendAndReactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("suspend then reactivate round trip", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")

		got, err := svc.SuspendMembership(ctx, m.ID, "payment dispute")
		if err != nil {
			t.Fatalf("SuspendMembership() error = %v", err)
		}
		if got.Status != domain.MembershipStatusSuspended {
			t.Errorf("Status = %v, want suspended", got.Status)
		}
		if got.SuspendedAt == nil || got.SuspensionReason != "payment dispute" {
			t.Errorf("suspension fields = (%v, %q), want set", got.SuspendedAt, got.SuspensionReason)
		}

		got, err = svc.ReactivateMembership(ctx, m.ID)
		if err != nil {
			t.Fatalf("ReactivateMembership() error = %v", err)
		}
		if got.Status != domain.MembershipStatusActive {
			t.Errorf("Status = %v, want active", got.Status)
		}
		if got.SuspendedAt != nil || got.SuspensionReason != "" {
			t.Error("suspension fields should be cleared on reactivation")
		}
	})

	t.Run("suspend on cancelled is a conflict", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")
		_, _ = svc.CancelMembership(ctx, m.ID, "gone")

		_, err := svc.SuspendMembership(ctx, m.ID, "dispute")
		if !errors.Is(err, domain.ErrMembershipNotActive) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotActive)
		}
	})

	t.Run("reactivate on active is a conflict", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")

		_, err := svc.ReactivateMembership(ctx, m.ID)
		if !errors.Is(err, domain.ErrMembershipNotSuspended) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotSuspended)
		}
	})

	t.Run("missing membership", func(t *testing.T) {
		svc, _, _ := newMembershipFixture(t)
		if _, err := svc.SuspendMembership(ctx, "ghost", "x"); !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Errorf("suspend error = %v, want %v", err, domain.ErrMembershipNotFound)
		}
		if _, err := svc.ReactivateMembership(ctx, "ghost"); !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Errorf("reactivate error = %v, want %v", err, domain.ErrMembershipNotFound)
		}
	})
}

func TestMembershipService_ExtendMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("extends from the end date", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")
		before := m.EndDate

		got, err := svc.ExtendMembership(ctx, m.ID, 30)
		if err != nil {
			t.Fatalf("ExtendMembership() error = %v", err)
		}
		if want := before.AddDate(0, 0, 30); !got.EndDate.Equal(want) {
			t.Errorf("EndDate = %v, want %v", got.EndDate, want)
		}
	})

	t.Run("non-positive days", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")

		for _, days := range []int{0, -5} {
			if _, err := svc.ExtendMembership(ctx, m.ID, days); !errors.Is(err, domain.ErrInvalidExtension) {
				t.Errorf("ExtendMembership(%d) error = %v, want %v", days, err, domain.ErrInvalidExtension)
			}
		}
	})

	t.Run("extend on cancelled is a conflict", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")
		before := m.EndDate
		_, _ = svc.CancelMembership(ctx, m.ID, "gone")

		_, err := svc.ExtendMembership(ctx, m.ID, 30)
		if !errors.Is(err, domain.ErrMembershipNotActive) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotActive)
		}

		got, _ := repo.GetByID(ctx, m.ID)
		if !got.EndDate.Equal(before) {
			t.Errorf("EndDate = %v, want unchanged %v", got.EndDate, before)
		}
	})

	t.Run("extend on expired is a conflict", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedMembershipEnding(t, repo, "user-001", time.Now().UTC().Add(-time.Hour))
		if _, err := svc.UpdateExpiredMemberships(ctx); err != nil {
			t.Fatalf("UpdateExpiredMemberships() error = %v", err)
		}

		if _, err := svc.ExtendMembership(ctx, m.ID, 30); !errors.Is(err, domain.ErrMembershipNotActive) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotActive)
		}
	})

	t.Run("missing membership", func(t *testing.T) {
		svc, _, _ := newMembershipFixture(t)
		if _, err := svc.ExtendMembership(ctx, "ghost", 30); !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrMembershipNotFound)
		}
	})
}

func TestMembershipService_GetMembershipStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("no membership", func(t *testing.T) {
		svc, _, _ := newMembershipFixture(t)

		status, err := svc.GetMembershipStatus(ctx, "user-001")
		if err != nil {
			t.Fatalf("GetMembershipStatus() error = %v", err)
		}
		if status.HasActiveMembership || status.DaysRemaining != 0 {
			t.Errorf("status = %+v, want inactive with 0 days", status)
		}
	})

	t.Run("active membership", func(t *testing.T) {
		svc, repo, _ := newMembershipFixture(t)
		m := seedActiveMembership(t, repo, "user-001")

		status, err := svc.GetMembershipStatus(ctx, "user-001")
		if err != nil {
			t.Fatalf("GetMembershipStatus() error = %v", err)
		}
		if !status.HasActiveMembership {
			t.Error("HasActiveMembership should be true")
		}
		if status.MembershipID != m.ID || status.PlanID != "plan-001" {
			t.Errorf("status = %+v, want membership %s on plan-001", status, m.ID)
		}
		if status.DaysRemaining < 364 || status.DaysRemaining > 365 {
			t.Errorf("DaysRemaining = %d, want ~365", status.DaysRemaining)
		}
		if _, err := time.Parse(time.RFC3339, status.EndDate); err != nil {
			t.Errorf("EndDate %q is not RFC3339: %v", status.EndDate, err)
		}
	})

	t.Run("empty user id", func(t *testing.T) {
		svc, _, _ := newMembershipFixture(t)
		if _, err := svc.GetMembershipStatus(ctx, ""); !errors.Is(err, domain.ErrInvalidUserID) {
			t.Errorf("error = %v, want %v", err, domain.ErrInvalidUserID)
		}
	})
}

func TestMembershipService_UpdateExpiredMemberships(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newMembershipFixture(t)

	lapsed := seedMembershipEnding(t, repo, "user-001", time.Now().UTC().Add(-time.Hour))
	seedActiveMembership(t, repo, "user-002")

	expired, err := svc.UpdateExpiredMemberships(ctx)
	if err != nil {
		t.Fatalf("UpdateExpiredMemberships() error = %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	got, _ := repo.GetByID(ctx, lapsed.ID)
	if got.Status != domain.MembershipStatusExpired {
		t.Errorf("Status = %v, want expired", got.Status)
	}
}

func TestMembershipService_GetExpiringMemberships(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newMembershipFixture(t)

	soon := seedMembershipEnding(t, repo, "user-001", time.Now().UTC().Add(3*24*time.Hour))
	seedMembershipEnding(t, repo, "user-002", time.Now().UTC().Add(30*24*time.Hour))

	// withinDays <= 0 falls back to the configured 7-day window
	memberships, err := svc.GetExpiringMemberships(ctx, 0)
	if err != nil {
		t.Fatalf("GetExpiringMemberships() error = %v", err)
	}
	if len(memberships) != 1 || memberships[0].ID != soon.ID {
		t.Errorf("memberships = %v, want only %s", memberships, soon.ID)
	}

	memberships, _ = svc.GetExpiringMemberships(ctx, 60)
	if len(memberships) != 2 {
		t.Errorf("len = %d, want 2 in a 60-day window", len(memberships))
	}
}
