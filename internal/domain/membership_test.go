package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewMembership(t *testing.T) {
	membership, err := NewMembership("user-001", "plan-001", "payment-001", 365)
	if err != nil {
		t.Fatalf("NewMembership() error = %v", err)
	}
	if membership.Status != MembershipStatusActive {
		t.Errorf("Status = %v, want %v", membership.Status, MembershipStatusActive)
	}
	wantEnd := membership.StartDate.AddDate(0, 0, 365)
	if !membership.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", membership.EndDate, wantEnd)
	}

	if _, err := NewMembership("", "plan-001", "", 365); err == nil {
		t.Error("missing user_id should error")
	}
	if _, err := NewMembership("user-001", "", "", 365); err == nil {
		t.Error("missing plan_id should error")
	}
	if _, err := NewMembership("user-001", "plan-001", "", 0); err == nil {
		t.Error("zero term should error")
	}
}

func TestMembership_Lifecycle(t *testing.T) {
	t.Run("active can be cancelled", func(t *testing.T) {
		m, _ := NewMembership("user-001", "plan-001", "", 365)
		if err := m.Cancel("moving away"); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if m.Status != MembershipStatusCancelled {
			t.Errorf("Status = %v, want %v", m.Status, MembershipStatusCancelled)
		}
		if m.CancelledAt == nil || m.CancellationReason != "moving away" {
			t.Error("cancellation audit fields should be set")
		}
	})

	t.Run("cancelled cannot be cancelled again", func(t *testing.T) {
		m, _ := NewMembership("user-001", "plan-001", "", 365)
		_ = m.Cancel("first")
		if err := m.Cancel("second"); !errors.Is(err, ErrMembershipNotActive) {
			t.Errorf("Cancel() error = %v, want %v", err, ErrMembershipNotActive)
		}
	})

	t.Run("suspend and reactivate round trip", func(t *testing.T) {
		m, _ := NewMembership("user-001", "plan-001", "", 365)
		if err := m.Suspend("payment dispute"); err != nil {
			t.Fatalf("Suspend() error = %v", err)
		}
		if m.Status != MembershipStatusSuspended {
			t.Errorf("Status = %v, want %v", m.Status, MembershipStatusSuspended)
		}

		if err := m.Reactivate(); err != nil {
			t.Fatalf("Reactivate() error = %v", err)
		}
		if m.Status != MembershipStatusActive {
			t.Errorf("Status = %v, want %v", m.Status, MembershipStatusActive)
		}
		if m.SuspendedAt != nil || m.SuspensionReason != "" {
			t.Error("reactivation should clear suspension fields")
		}
	})

	t.Run("only suspended can be reactivated", func(t *testing.T) {
		m, _ := NewMembership("user-001", "plan-001", "", 365)
		if err := m.Reactivate(); !errors.Is(err, ErrMembershipNotSuspended) {
			t.Errorf("Reactivate() error = %v, want %v", err, ErrMembershipNotSuspended)
		}
	})

	t.Run("only active can be suspended", func(t *testing.T) {
		m, _ := NewMembership("user-001", "plan-001", "", 365)
		_ = m.Cancel("gone")
		if err := m.Suspend("reason"); !errors.Is(err, ErrMembershipNotActive) {
			t.Errorf("Suspend() error = %v, want %v", err, ErrMembershipNotActive)
		}
	})
}

func TestMembership_Extend(t *testing.T) {
	m, _ := NewMembership("user-001", "plan-001", "", 30)
	m.EndDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Extensions accumulate on the end date, not on now
	if err := m.Extend(30); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC); !m.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", m.EndDate, want)
	}

	if err := m.Extend(30); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if want := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC); !m.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", m.EndDate, want)
	}

	if err := m.Extend(0); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("Extend(0) error = %v, want %v", err, ErrInvalidExtension)
	}
	if err := m.Extend(-5); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("Extend(-5) error = %v, want %v", err, ErrInvalidExtension)
	}
}

func TestMembership_DaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &Membership{
		Status:  MembershipStatusActive,
		EndDate: now.Add(36 * time.Hour),
	}

	// Partial days round up
	if got := m.DaysRemaining(now); got != 2 {
		t.Errorf("DaysRemaining = %d, want 2", got)
	}

	m.EndDate = now.Add(-time.Hour)
	if got := m.DaysRemaining(now); got != 0 {
		t.Errorf("DaysRemaining past end = %d, want 0", got)
	}
}

func TestMembership_IsActive(t *testing.T) {
	now := time.Now().UTC()
	m, _ := NewMembership("user-001", "plan-001", "", 365)

	if !m.IsActive(now.Add(time.Hour)) {
		t.Error("fresh membership should be active")
	}
	if m.IsActive(m.EndDate.Add(time.Hour)) {
		t.Error("membership past its end date is not active")
	}

	_ = m.Suspend("held")
	if m.IsActive(now) {
		t.Error("suspended membership is not active")
	}
}
