package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
)

// MockMembershipService is a mock implementation of service.MembershipService
type MockMembershipService struct {
	UpdateExpiredMembershipsFunc func(ctx context.Context) (int64, error)
	GetExpiringMembershipsFunc   func(ctx context.Context, withinDays int) ([]*domain.Membership, error)
}

func (m *MockMembershipService) GetMembership(ctx context.Context, membershipID string) (*domain.Membership, error) {
	return nil, domain.ErrMembershipNotFound
}

func (m *MockMembershipService) GetUserMemberships(ctx context.Context, userID string) ([]*domain.Membership, error) {
	return nil, nil
}

func (m *MockMembershipService) CancelMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error) {
	return nil, domain.ErrMembershipNotFound
}

func (m *MockMembershipService) SuspendMembership(ctx context.Context, membershipID, reason string) (*domain.Membership, error) {
	return nil, domain.ErrMembershipNotFound
}

func (m *MockMembershipService) ReactivateMembership(ctx context.Context, membershipID string) (*domain.Membership, error) {
	return nil, domain.ErrMembershipNotFound
}

func (m *MockMembershipService) ExtendMembership(ctx context.Context, membershipID string, days int) (*domain.Membership, error) {
	return nil, domain.ErrMembershipNotFound
}

func (m *MockMembershipService) GetMembershipStatus(ctx context.Context, userID string) (*dto.MembershipStatusResponse, error) {
	return &dto.MembershipStatusResponse{}, nil
}

func (m *MockMembershipService) UpdateExpiredMemberships(ctx context.Context) (int64, error) {
	if m.UpdateExpiredMembershipsFunc != nil {
		return m.UpdateExpiredMembershipsFunc(ctx)
	}
	return 0, nil
}

func (m *MockMembershipService) GetExpiringMemberships(ctx context.Context, withinDays int) ([]*domain.Membership, error) {
	if m.GetExpiringMembershipsFunc != nil {
		return m.GetExpiringMembershipsFunc(ctx, withinDays)
	}
	return nil, nil
}

// MockEventPublisher is a mock implementation of service.EventPublisher
type MockEventPublisher struct {
	mu             sync.Mutex
	expiringSoon   []string
	expiringSoonFn func(ctx context.Context, membership *domain.Membership) error
}

func (m *MockEventPublisher) PublishMembershipActivated(ctx context.Context, membership *domain.Membership) error {
	return nil
}

func (m *MockEventPublisher) PublishMembershipCancelled(ctx context.Context, membership *domain.Membership) error {
	return nil
}

func (m *MockEventPublisher) PublishMembershipExpiringSoon(ctx context.Context, membership *domain.Membership) error {
	m.mu.Lock()
	m.expiringSoon = append(m.expiringSoon, membership.ID)
	m.mu.Unlock()
	if m.expiringSoonFn != nil {
		return m.expiringSoonFn(ctx, membership)
	}
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) ExpiringSoonIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.expiringSoon...)
}

func TestMembershipExpiryWorker_StartStop(t *testing.T) {
	scanned := make(chan struct{}, 1)
	svc := &MockMembershipService{
		UpdateExpiredMembershipsFunc: func(ctx context.Context) (int64, error) {
			select {
			case scanned <- struct{}{}:
			default:
			}
			return 2, nil
		},
	}

	w := NewMembershipExpiryWorker(svc, nil, &MembershipExpiryWorkerConfig{
		ScanInterval: time.Hour,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	// Start is not reentrant
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start() should error")
	}

	select {
	case <-scanned:
	case <-time.After(time.Second):
		t.Fatal("worker should scan immediately on start")
	}

	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	totalExpired, lastExpiredCount, lastScanTime := w.Stats()
	if totalExpired != 2 || lastExpiredCount != 2 {
		t.Errorf("Stats() = (%d, %d), want (2, 2)", totalExpired, lastExpiredCount)
	}
	if lastScanTime.IsZero() {
		t.Error("lastScanTime should be set after a scan")
	}
}

func TestMembershipExpiryWorker_ScanError(t *testing.T) {
	scanned := make(chan struct{}, 1)
	svc := &MockMembershipService{
		UpdateExpiredMembershipsFunc: func(ctx context.Context) (int64, error) {
			select {
			case scanned <- struct{}{}:
			default:
			}
			return 0, errors.New("database unavailable")
		},
	}

	w := NewMembershipExpiryWorker(svc, nil, &MembershipExpiryWorkerConfig{
		ScanInterval: time.Hour,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-scanned
	w.Stop()

	// A failed scan never counts
	totalExpired, _, lastScanTime := w.Stats()
	if totalExpired != 0 {
		t.Errorf("totalExpired = %d, want 0", totalExpired)
	}
	if !lastScanTime.IsZero() {
		t.Error("lastScanTime should stay zero when every scan failed")
	}
}

func TestMembershipExpiryWorker_NotifyExpiringSoon(t *testing.T) {
	memberships := []*domain.Membership{
		{ID: "membership-001", UserID: "user-001"},
		{ID: "membership-002", UserID: "user-002"},
	}

	notified := make(chan struct{}, 1)
	svc := &MockMembershipService{
		GetExpiringMembershipsFunc: func(ctx context.Context, withinDays int) ([]*domain.Membership, error) {
			if withinDays != 7 {
				t.Errorf("withinDays = %d, want 7", withinDays)
			}
			select {
			case notified <- struct{}{}:
			default:
			}
			return memberships, nil
		},
	}
	publisher := &MockEventPublisher{}

	w := NewMembershipExpiryWorker(svc, publisher, &MembershipExpiryWorkerConfig{
		ScanInterval:       time.Hour,
		NotifyExpiringSoon: true,
		ExpiringSoonDays:   7,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("worker should query expiring memberships on scan")
	}
	w.Stop()

	ids := publisher.ExpiringSoonIDs()
	if len(ids) != 2 {
		t.Fatalf("published = %d notices, want 2", len(ids))
	}
	if ids[0] != "membership-001" || ids[1] != "membership-002" {
		t.Errorf("notice IDs = %v", ids)
	}
}

func TestMembershipExpiryWorker_PublisherFailureDoesNotStopNotices(t *testing.T) {
	memberships := []*domain.Membership{
		{ID: "membership-001"},
		{ID: "membership-002"},
	}

	notified := make(chan struct{}, 1)
	svc := &MockMembershipService{
		GetExpiringMembershipsFunc: func(ctx context.Context, withinDays int) ([]*domain.Membership, error) {
			select {
			case notified <- struct{}{}:
			default:
			}
			return memberships, nil
		},
	}
	publisher := &MockEventPublisher{
		expiringSoonFn: func(ctx context.Context, membership *domain.Membership) error {
			return errors.New("broker unavailable")
		},
	}

	w := NewMembershipExpiryWorker(svc, publisher, &MembershipExpiryWorkerConfig{
		ScanInterval:       time.Hour,
		NotifyExpiringSoon: true,
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-notified
	w.Stop()

	// Both notices were attempted despite the failures
	if got := len(publisher.ExpiringSoonIDs()); got != 2 {
		t.Errorf("attempted = %d, want 2", got)
	}
}
