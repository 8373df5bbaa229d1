package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/gateway"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/metrics"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

// Processor intent statuses the reconciler acts on. Anything else is a
// transient state and leaves the payment untouched.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
	IntentStatusCanceled  = "canceled"
)

// PaymentService orchestrates plan purchases: intent creation against the
// processor and reconciliation of the processor's verdict back onto the
// payment record. Reconciliation is idempotent; the first caller to move the
// payment out of pending also activates the membership, exactly once.
type PaymentService interface {
	// CreatePaymentIntent starts a plan purchase for the user
	CreatePaymentIntent(ctx context.Context, userID, planID string) (*dto.PaymentIntentResponse, error)

	// ConfirmPayment polls the processor for the intent state and reconciles
	ConfirmPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// HandleIntentEvent reconciles a webhook verdict located by intent ID
	HandleIntentEvent(ctx context.Context, intentID, externalStatus, failureReason string) (*domain.Payment, error)

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// GetUserPayments retrieves the user's payment history
	GetUserPayments(ctx context.Context, userID string) ([]*domain.Payment, error)
}

// paymentService implements PaymentService
type paymentService struct {
	paymentRepo    repository.PaymentRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	planRepo       repository.PlanRepository
	gateway        gateway.PaymentGateway
	eventPublisher EventPublisher
	termDays       int
}

// PaymentServiceConfig contains configuration for the payment service
type PaymentServiceConfig struct {
	// MembershipTermDays is the length of the membership bought by one payment
	MembershipTermDays int
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	gw gateway.PaymentGateway,
	eventPublisher EventPublisher,
	cfg *PaymentServiceConfig,
) PaymentService {
	termDays := 365
	if cfg != nil && cfg.MembershipTermDays > 0 {
		termDays = cfg.MembershipTermDays
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &paymentService{
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		planRepo:       planRepo,
		gateway:        gw,
		eventPublisher: eventPublisher,
		termDays:       termDays,
	}
}

// CreatePaymentIntent starts a plan purchase for the user
func (s *paymentService) CreatePaymentIntent(ctx context.Context, userID, planID string) (*dto.PaymentIntentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.create_intent")
	defer span.End()

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if planID == "" {
		span.SetStatus(codes.Error, "invalid plan_id")
		return nil, domain.ErrInvalidPlanID
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("plan_id", planID),
	)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanNotFound
	}

	// A lapsed processor customer handle is harmless; a missing one gets
	// created and cached on the user record
	customerID := user.StripeCustomerID
	if customerID == "" {
		cust, err := s.gateway.CreateCustomer(ctx, &gateway.CreateCustomerRequest{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.FullName(),
		})
		if err != nil {
			telemetry.SetSpanError(ctx, err)
			return nil, domain.NewExternalServiceError("stripe", err)
		}
		customerID = cust.CustomerID
		if err := s.userRepo.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			return nil, err
		}
	}

	if _, err := s.membershipRepo.GetActiveByUser(ctx, userID); err == nil {
		return nil, domain.ErrActiveMembershipExists
	} else if !errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, &gateway.PaymentIntentRequest{
		Amount:     plan.Price,
		Currency:   plan.Currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			"user_id":   user.ID,
			"plan_id":   plan.ID,
			"plan_name": plan.Name,
		},
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.NewExternalServiceError("stripe", err)
	}

	payment, err := domain.NewPayment(user.ID, plan.ID, plan.Price, plan.Currency)
	if err != nil {
		return nil, err
	}
	payment.SetStripeIntent(intent.IntentID, intent.ClientSecret)

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	metrics.RecordPaymentIntentCreated(ctx, plan.ID, payment.Currency, payment.Amount)
	logger.InfoCtx(ctx, "payment intent created",
		zap.String("payment_id", payment.ID),
		zap.String("user_id", user.ID),
		zap.String("plan_id", plan.ID),
		zap.Int64("amount", payment.Amount),
	)

	return &dto.PaymentIntentResponse{
		PaymentID:    payment.ID,
		ClientSecret: payment.StripeClientSecret,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
	}, nil
}

// ConfirmPayment polls the processor for the intent state and reconciles.
// The processor never reports "failed" as an intent status, so a poll only
// ever finalizes success or cancellation; declined attempts stay pending
// until the webhook delivers the verdict or the member retries.
func (s *paymentService) ConfirmPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.confirm")
	defer span.End()

	if paymentID == "" {
		return nil, domain.ErrInvalidPaymentID
	}
	span.SetAttributes(attribute.String("payment_id", paymentID))

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return payment, nil
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, payment.StripePaymentIntentID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.NewExternalServiceError("stripe", err)
	}

	return s.reconcile(ctx, payment, intent.Status, intent.FailureReason)
}

// HandleIntentEvent reconciles a webhook verdict located by intent ID
func (s *paymentService) HandleIntentEvent(ctx context.Context, intentID, externalStatus, failureReason string) (*domain.Payment, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.handle_intent_event")
	defer span.End()

	span.SetAttributes(
		attribute.String("intent_id", intentID),
		attribute.String("external_status", externalStatus),
	)

	payment, err := s.paymentRepo.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, payment, externalStatus, failureReason)
}

// GetPayment retrieves a payment by ID
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, domain.ErrInvalidPaymentID
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// GetUserPayments retrieves the user's payment history
func (s *paymentService) GetUserPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	return s.paymentRepo.ListByUser(ctx, userID)
}

// reconcile applies the processor's verdict onto the payment record. The
// pending-only conditional update makes this safe to run from the webhook
// and the confirmation poll concurrently: exactly one caller wins the
// transition, and only the winner activates the membership.
func (s *paymentService) reconcile(ctx context.Context, payment *domain.Payment, externalStatus, failureReason string) (*domain.Payment, error) {
	start := time.Now()

	if !payment.IsPending() {
		return payment, nil
	}

	switch externalStatus {
	case IntentStatusSucceeded:
		now := time.Now().UTC()
		won, err := s.paymentRepo.MarkSucceededIfPending(ctx, payment.ID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			// Another reconciler finalized it first
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		payment.Status = domain.PaymentStatusSucceeded
		payment.PaidAt = &now
		payment.UpdatedAt = now

		s.activateMembership(ctx, payment)
		metrics.RecordPaymentSucceeded(ctx, payment.PlanID, time.Since(start).Seconds())

	case IntentStatusFailed:
		if failureReason == "" {
			failureReason = "payment_failed"
		}
		now := time.Now().UTC()
		won, err := s.paymentRepo.MarkFailedIfPending(ctx, payment.ID, now, failureReason)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		payment.Status = domain.PaymentStatusFailed
		payment.FailedAt = &now
		payment.FailureReason = failureReason
		payment.UpdatedAt = now

		metrics.RecordPaymentFailed(ctx, payment.PlanID, failureReason)
		logger.WarnCtx(ctx, "payment failed",
			zap.String("payment_id", payment.ID),
			zap.String("reason", failureReason),
		)

	case IntentStatusCanceled:
		won, err := s.paymentRepo.MarkCancelledIfPending(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		payment.Status = domain.PaymentStatusCancelled
		payment.UpdatedAt = time.Now().UTC()

		metrics.RecordPaymentCancelled(ctx, payment.PlanID)

	default:
		// Transient processor state (processing, requires_action, ...)
	}

	return payment, nil
}

// activateMembership creates the membership bought by a succeeded payment.
// Failure here never rolls back the payment: the index-backed uniqueness
// check means a duplicate activation is refused, and anything else is left
// for support tooling to replay.
func (s *paymentService) activateMembership(ctx context.Context, payment *domain.Payment) {
	membership, err := domain.NewMembership(payment.UserID, payment.PlanID, payment.ID, s.termDays)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to build membership",
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		return
	}

	// A lapsed membership the sweeper has not reached yet still occupies the
	// one-active-per-user index slot; expire it before inserting the new one
	if _, err := s.membershipRepo.ExpireLapsedForUser(ctx, payment.UserID, time.Now().UTC()); err != nil {
		logger.WarnCtx(ctx, "failed to expire lapsed membership before activation",
			zap.String("user_id", payment.UserID),
			zap.Error(err),
		)
	}

	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		if errors.Is(err, domain.ErrActiveMembershipExists) {
			logger.WarnCtx(ctx, "membership already active, skipping activation",
				zap.String("payment_id", payment.ID),
				zap.String("user_id", payment.UserID),
			)
			return
		}
		logger.ErrorCtx(ctx, "failed to create membership",
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		return
	}

	metrics.RecordMembershipActivated(ctx, membership.PlanID)
	logger.InfoCtx(ctx, "membership activated",
		zap.String("membership_id", membership.ID),
		zap.String("user_id", membership.UserID),
		zap.String("plan_id", membership.PlanID),
		zap.String("payment_id", payment.ID),
	)

	// Best-effort notification
	if err := s.eventPublisher.PublishMembershipActivated(ctx, membership); err != nil {
		logger.WarnCtx(ctx, "failed to publish membership activated event",
			zap.String("membership_id", membership.ID),
			zap.Error(err),
		)
	}
}
