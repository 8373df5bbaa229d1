package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/gateway"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	PublishMembershipActivatedFunc    func(ctx context.Context, membership *domain.Membership) error
	PublishMembershipCancelledFunc    func(ctx context.Context, membership *domain.Membership) error
	PublishMembershipExpiringSoonFunc func(ctx context.Context, membership *domain.Membership) error
}

func (m *MockEventPublisher) PublishMembershipActivated(ctx context.Context, membership *domain.Membership) error {
	if m.PublishMembershipActivatedFunc != nil {
		return m.PublishMembershipActivatedFunc(ctx, membership)
	}
	return nil
}

func (m *MockEventPublisher) PublishMembershipCancelled(ctx context.Context, membership *domain.Membership) error {
	if m.PublishMembershipCancelledFunc != nil {
		return m.PublishMembershipCancelledFunc(ctx, membership)
	}
	return nil
}

func (m *MockEventPublisher) PublishMembershipExpiringSoon(ctx context.Context, membership *domain.Membership) error {
	if m.PublishMembershipExpiringSoonFunc != nil {
		return m.PublishMembershipExpiringSoonFunc(ctx, membership)
	}
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// MockPaymentGateway is a mock implementation of gateway.PaymentGateway
type MockPaymentGateway struct {
	CreateCustomerFunc      func(ctx context.Context, req *gateway.CreateCustomerRequest) (*gateway.CustomerResponse, error)
	CreatePaymentIntentFunc func(ctx context.Context, req *gateway.PaymentIntentRequest) (*gateway.PaymentIntentResponse, error)
	GetPaymentIntentFunc    func(ctx context.Context, intentID string) (*gateway.PaymentIntentResponse, error)
}

func (m *MockPaymentGateway) CreateCustomer(ctx context.Context, req *gateway.CreateCustomerRequest) (*gateway.CustomerResponse, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, req)
	}
	return &gateway.CustomerResponse{CustomerID: "cus_test_001", Email: req.Email}, nil
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, req *gateway.PaymentIntentRequest) (*gateway.PaymentIntentResponse, error) {
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, req)
	}
	return &gateway.PaymentIntentResponse{
		IntentID:     "pi_test_001",
		ClientSecret: "pi_test_001_secret_abc",
		Status:       "requires_payment_method",
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (m *MockPaymentGateway) GetPaymentIntent(ctx context.Context, intentID string) (*gateway.PaymentIntentResponse, error) {
	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, intentID)
	}
	return &gateway.PaymentIntentResponse{IntentID: intentID, Status: "requires_payment_method"}, nil
}

func (m *MockPaymentGateway) Name() string { return "mock" }

type paymentFixture struct {
	service        PaymentService
	paymentRepo    *repository.MemoryPaymentRepository
	membershipRepo *repository.MemoryMembershipRepository
	userRepo       *repository.MemoryUserRepository
	gateway        *gateway.MockGateway
	publisher      *MockEventPublisher
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := repository.NewMemoryUserRepository()
	if err := userRepo.Create(ctx, &domain.User{
		ID:        "user-001",
		Email:     "member@example.com",
		FirstName: "Alex",
		LastName:  "Doe",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	planRepo := repository.NewMemoryPlanRepository()
	if err := planRepo.Create(ctx, &domain.Plan{
		ID:       "plan-001",
		Name:     "Annual",
		Price:    25000,
		Currency: "gbp",
		IsActive: true,
	}); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	if err := planRepo.Create(ctx, &domain.Plan{
		ID:       "plan-retired",
		Name:     "Legacy",
		Price:    10000,
		Currency: "gbp",
		IsActive: false,
	}); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	paymentRepo := repository.NewMemoryPaymentRepository()
	membershipRepo := repository.NewMemoryMembershipRepository()
	gw := gateway.NewMockGateway(nil)
	publisher := &MockEventPublisher{}

	svc := NewPaymentService(paymentRepo, membershipRepo, userRepo, planRepo, gw, publisher, &PaymentServiceConfig{
		MembershipTermDays: 365,
	})

	return &paymentFixture{
		service:        svc,
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		gateway:        gw,
		publisher:      publisher,
	}
}

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending payment with a client secret", func(t *testing.T) {
		f := newPaymentFixture(t)

		resp, err := f.service.CreatePaymentIntent(ctx, "user-001", "plan-001")
		if err != nil {
			t.Fatalf("CreatePaymentIntent() error = %v", err)
		}
		if resp.ClientSecret == "" {
			t.Error("ClientSecret should be returned to the caller")
		}
		if resp.Amount != 25000 || resp.Currency != "gbp" {
			t.Errorf("amount/currency = %d/%s, want 25000/gbp", resp.Amount, resp.Currency)
		}

		payment, err := f.paymentRepo.GetByID(ctx, resp.PaymentID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !payment.IsPending() {
			t.Errorf("Status = %v, want pending", payment.Status)
		}
		if payment.StripePaymentIntentID == "" {
			t.Error("intent ID should be persisted on the payment")
		}

		// Processor customer handle gets cached on the user record
		user, _ := f.userRepo.GetByID(ctx, "user-001")
		if user.StripeCustomerID == "" {
			t.Error("StripeCustomerID should be cached")
		}
	})

	t.Run("reuses a cached customer handle", func(t *testing.T) {
		f := newPaymentFixture(t)
		_ = f.userRepo.SetStripeCustomerID(ctx, "user-001", "cus_cached")

		gw := &MockPaymentGateway{
			CreateCustomerFunc: func(ctx context.Context, req *gateway.CreateCustomerRequest) (*gateway.CustomerResponse, error) {
				t.Error("CreateCustomer should not be called when a handle is cached")
				return nil, errors.New("unexpected")
			},
			CreatePaymentIntentFunc: func(ctx context.Context, req *gateway.PaymentIntentRequest) (*gateway.PaymentIntentResponse, error) {
				if req.CustomerID != "cus_cached" {
					t.Errorf("CustomerID = %v, want cus_cached", req.CustomerID)
				}
				return &gateway.PaymentIntentResponse{IntentID: "pi_x", ClientSecret: "pi_x_secret", Status: "requires_payment_method"}, nil
			},
		}
		svc := NewPaymentService(f.paymentRepo, f.membershipRepo, f.userRepo, planRepoFrom(t, f), gw, f.publisher, nil)

		if _, err := svc.CreatePaymentIntent(ctx, "user-001", "plan-001"); err != nil {
			t.Fatalf("CreatePaymentIntent() error = %v", err)
		}
	})

	t.Run("refused while a membership is active", func(t *testing.T) {
		f := newPaymentFixture(t)
		membership, _ := domain.NewMembership("user-001", "plan-001", "", 365)
		_ = f.membershipRepo.Create(ctx, membership)

		_, err := f.service.CreatePaymentIntent(ctx, "user-001", "plan-001")
		if !errors.Is(err, domain.ErrActiveMembershipExists) {
			t.Errorf("error = %v, want %v", err, domain.ErrActiveMembershipExists)
		}
	})

	t.Run("lapsed membership does not block a renewal", func(t *testing.T) {
		f := newPaymentFixture(t)
		membership, _ := domain.NewMembership("user-001", "plan-001", "", 365)
		membership.EndDate = time.Now().UTC().Add(-48 * time.Hour)
		_ = f.membershipRepo.Create(ctx, membership)

		// Still status=active because no sweep has run yet
		if _, err := f.service.CreatePaymentIntent(ctx, "user-001", "plan-001"); err != nil {
			t.Fatalf("CreatePaymentIntent() error = %v", err)
		}
	})

	t.Run("retired plan is not purchasable", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.service.CreatePaymentIntent(ctx, "user-001", "plan-retired")
		if !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrPlanNotFound)
		}
	})

	t.Run("unknown user and plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, err := f.service.CreatePaymentIntent(ctx, "ghost", "plan-001"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrUserNotFound)
		}
		if _, err := f.service.CreatePaymentIntent(ctx, "user-001", "ghost"); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrPlanNotFound)
		}
	})

	t.Run("processor outage surfaces as external service error", func(t *testing.T) {
		f := newPaymentFixture(t)
		gw := &MockPaymentGateway{
			CreatePaymentIntentFunc: func(ctx context.Context, req *gateway.PaymentIntentRequest) (*gateway.PaymentIntentResponse, error) {
				return nil, fmt.Errorf("connection refused")
			},
		}
		svc := NewPaymentService(f.paymentRepo, f.membershipRepo, f.userRepo, planRepoFrom(t, f), gw, f.publisher, nil)

		_, err := svc.CreatePaymentIntent(ctx, "user-001", "plan-001")
		if !domain.IsExternalServiceError(err) {
			t.Errorf("error = %v, want external service error", err)
		}
	})
}

// planRepoFrom rebuilds a plan repo with the fixture's standard plans for
// tests that swap the gateway
func planRepoFrom(t *testing.T, f *paymentFixture) *repository.MemoryPlanRepository {
	t.Helper()
	ctx := context.Background()
	planRepo := repository.NewMemoryPlanRepository()
	_ = planRepo.Create(ctx, &domain.Plan{ID: "plan-001", Name: "Annual", Price: 25000, Currency: "gbp", IsActive: true})
	return planRepo
}

func createIntent(t *testing.T, f *paymentFixture) *domain.Payment {
	t.Helper()
	ctx := context.Background()
	resp, err := f.service.CreatePaymentIntent(ctx, "user-001", "plan-001")
	if err != nil {
		t.Fatalf("CreatePaymentIntent() error = %v", err)
	}
	payment, err := f.paymentRepo.GetByID(ctx, resp.PaymentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	return payment
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("transient intent state leaves the payment pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := createIntent(t, f)

		got, err := f.service.ConfirmPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if !got.IsPending() {
			t.Errorf("Status = %v, want pending", got.Status)
		}

		_, err = f.membershipRepo.GetActiveByUser(ctx, "user-001")
		if !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Error("no membership should exist before the processor succeeds")
		}
	})

	t.Run("succeeded intent finalizes and activates the membership", func(t *testing.T) {
		f := newPaymentFixture(t)
		published := 0
		f.publisher.PublishMembershipActivatedFunc = func(ctx context.Context, membership *domain.Membership) error {
			published++
			return nil
		}

		payment := createIntent(t, f)
		_ = f.gateway.SetIntentStatus(payment.StripePaymentIntentID, IntentStatusSucceeded, "")

		got, err := f.service.ConfirmPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if got.Status != domain.PaymentStatusSucceeded {
			t.Errorf("Status = %v, want succeeded", got.Status)
		}

		membership, err := f.membershipRepo.GetActiveByUser(ctx, "user-001")
		if err != nil {
			t.Fatalf("membership should be active, got %v", err)
		}
		if membership.PaymentID != payment.ID {
			t.Errorf("PaymentID = %v, want %v", membership.PaymentID, payment.ID)
		}
		if published != 1 {
			t.Errorf("published = %d, want 1", published)
		}
	})

	t.Run("renewal expires the lapsed membership and activates a fresh one", func(t *testing.T) {
		f := newPaymentFixture(t)
		stale, _ := domain.NewMembership("user-001", "plan-001", "", 365)
		stale.EndDate = time.Now().UTC().Add(-48 * time.Hour)
		_ = f.membershipRepo.Create(ctx, stale)

		payment := createIntent(t, f)
		_ = f.gateway.SetIntentStatus(payment.StripePaymentIntentID, IntentStatusSucceeded, "")

		got, err := f.service.ConfirmPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if got.Status != domain.PaymentStatusSucceeded {
			t.Errorf("Status = %v, want succeeded", got.Status)
		}

		fresh, err := f.membershipRepo.GetActiveByUser(ctx, "user-001")
		if err != nil {
			t.Fatalf("renewal should activate a membership, got %v", err)
		}
		if fresh.ID == stale.ID {
			t.Error("activation should create a new membership, not reuse the lapsed one")
		}
		if fresh.PaymentID != payment.ID {
			t.Errorf("PaymentID = %v, want %v", fresh.PaymentID, payment.ID)
		}

		old, _ := f.membershipRepo.GetByID(ctx, stale.ID)
		if old.Status != domain.MembershipStatusExpired {
			t.Errorf("stale status = %v, want expired", old.Status)
		}
	})

	t.Run("confirm after finalization is a read", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := createIntent(t, f)
		_ = f.gateway.SetIntentStatus(payment.StripePaymentIntentID, IntentStatusSucceeded, "")
		_, _ = f.service.ConfirmPayment(ctx, payment.ID)

		// Drive the stored intent to a different state; a finalized payment
		// must not move again
		_ = f.gateway.SetIntentStatus(payment.StripePaymentIntentID, IntentStatusCanceled, "")

		got, err := f.service.ConfirmPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if got.Status != domain.PaymentStatusSucceeded {
			t.Errorf("Status = %v, want succeeded", got.Status)
		}
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.service.ConfirmPayment(ctx, "ghost")
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrPaymentNotFound)
		}
	})
}

func TestPaymentService_HandleIntentEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("failed verdict records the reason", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := createIntent(t, f)

		got, err := f.service.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusFailed, "card_declined")
		if err != nil {
			t.Fatalf("HandleIntentEvent() error = %v", err)
		}
		if got.Status != domain.PaymentStatusFailed {
			t.Errorf("Status = %v, want failed", got.Status)
		}
		if got.FailureReason != "card_declined" {
			t.Errorf("FailureReason = %v, want card_declined", got.FailureReason)
		}

		_, err = f.membershipRepo.GetActiveByUser(ctx, "user-001")
		if !errors.Is(err, domain.ErrMembershipNotFound) {
			t.Error("a failed payment must not activate a membership")
		}
	})

	t.Run("failed verdict without a reason gets a default", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := createIntent(t, f)

		got, _ := f.service.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusFailed, "")
		if got.FailureReason != "payment_failed" {
			t.Errorf("FailureReason = %v, want payment_failed", got.FailureReason)
		}
	})

	t.Run("canceled verdict", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := createIntent(t, f)

		got, err := f.service.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusCanceled, "")
		if err != nil {
			t.Fatalf("HandleIntentEvent() error = %v", err)
		}
		if got.Status != domain.PaymentStatusCancelled {
			t.Errorf("Status = %v, want cancelled", got.Status)
		}
	})

	t.Run("unknown intent", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.service.HandleIntentEvent(ctx, "pi_ghost", IntentStatusSucceeded, "")
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrPaymentNotFound)
		}
	})

	t.Run("webhook and poll race activates exactly one membership", func(t *testing.T) {
		f := newPaymentFixture(t)
		activated := 0
		f.publisher.PublishMembershipActivatedFunc = func(ctx context.Context, membership *domain.Membership) error {
			activated++
			return nil
		}

		payment := createIntent(t, f)
		_ = f.gateway.SetIntentStatus(payment.StripePaymentIntentID, IntentStatusSucceeded, "")

		// Webhook lands first, then the client poll reconciles the same intent
		first, err := f.service.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusSucceeded, "")
		if err != nil {
			t.Fatalf("HandleIntentEvent() error = %v", err)
		}
		second, err := f.service.ConfirmPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}

		if first.Status != domain.PaymentStatusSucceeded || second.Status != domain.PaymentStatusSucceeded {
			t.Errorf("statuses = %v/%v, want succeeded/succeeded", first.Status, second.Status)
		}

		memberships, _ := f.membershipRepo.ListByUser(ctx, "user-001")
		if len(memberships) != 1 {
			t.Errorf("memberships = %d, want exactly 1", len(memberships))
		}
		if activated != 1 {
			t.Errorf("activation events = %d, want 1", activated)
		}
	})

	t.Run("publisher failure does not fail reconciliation", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.publisher.PublishMembershipActivatedFunc = func(ctx context.Context, membership *domain.Membership) error {
			return errors.New("broker unavailable")
		}

		payment := createIntent(t, f)
		got, err := f.service.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusSucceeded, "")
		if err != nil {
			t.Fatalf("HandleIntentEvent() error = %v", err)
		}
		if got.Status != domain.PaymentStatusSucceeded {
			t.Errorf("Status = %v, want succeeded", got.Status)
		}
		if _, err := f.membershipRepo.GetActiveByUser(ctx, "user-001"); err != nil {
			t.Errorf("membership should still be active, got %v", err)
		}
	})
}

func TestPaymentService_GetUserPayments(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)

	payment := createIntent(t, f)
	_ = payment

	payments, err := f.service.GetUserPayments(ctx, "user-001")
	if err != nil {
		t.Fatalf("GetUserPayments() error = %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("len = %d, want 1", len(payments))
	}

	if _, err := f.service.GetUserPayments(ctx, ""); !errors.Is(err, domain.ErrInvalidUserID) {
		t.Errorf("error = %v, want %v", err, domain.ErrInvalidUserID)
	}
}

// The membership term follows configuration, not a hard-coded year
func TestPaymentService_MembershipTerm(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)

	svc := NewPaymentService(f.paymentRepo, f.membershipRepo, f.userRepo, planRepoFrom(t, f), f.gateway, f.publisher, &PaymentServiceConfig{
		MembershipTermDays: 30,
	})

	resp, err := svc.CreatePaymentIntent(ctx, "user-001", "plan-001")
	if err != nil {
		t.Fatalf("CreatePaymentIntent() error = %v", err)
	}
	payment, _ := f.paymentRepo.GetByID(ctx, resp.PaymentID)
	if _, err := svc.HandleIntentEvent(ctx, payment.StripePaymentIntentID, IntentStatusSucceeded, ""); err != nil {
		t.Fatalf("HandleIntentEvent() error = %v", err)
	}

	membership, err := f.membershipRepo.GetActiveByUser(ctx, "user-001")
	if err != nil {
		t.Fatalf("membership should be active, got %v", err)
	}
	wantEnd := membership.StartDate.AddDate(0, 0, 30)
	if !membership.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", membership.EndDate, wantEnd)
	}

	// Sanity: the term is nowhere near the 365-day default
	if membership.EndDate.Sub(membership.StartDate) > 31*24*time.Hour {
		t.Error("term should honor the configured 30 days")
	}
}
