package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// alphanumericChars for generating Stripe-compatible IDs
const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomAlphanumeric generates a random alphanumeric string of given length
func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// MockGateway implements PaymentGateway for testing and local development.
// Intents start in requires_payment_method; tests drive them to a terminal
// state with SetIntentStatus.
type MockGateway struct {
	config  *MockGatewayConfig
	intents sync.Map
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = &MockGatewayConfig{}
	}
	return &MockGateway{
		config: config,
	}
}

var _ PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}

// CreateCustomer creates a mock processor customer
func (g *MockGateway) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("create customer request is required")
	}
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	return &CustomerResponse{
		CustomerID: fmt.Sprintf("cus_mock_%s", uuid.New().String()[:12]),
		Email:      req.Email,
		Name:       req.Name,
	}, nil
}

// CreatePaymentIntent creates a mock payment intent
func (g *MockGateway) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("payment intent request is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	intentID := fmt.Sprintf("pi_mock_%s", randomAlphanumeric(24))
	clientSecret := fmt.Sprintf("%s_secret_%s", intentID, randomAlphanumeric(24))

	intent := &PaymentIntentResponse{
		IntentID:     intentID,
		ClientSecret: clientSecret,
		Status:       "requires_payment_method",
		Amount:       req.Amount,
		Currency:     req.Currency,
	}
	g.intents.Store(intentID, intent)

	return intent, nil
}

// GetPaymentIntent fetches a mock payment intent
func (g *MockGateway) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntentResponse, error) {
	if intentID == "" {
		return nil, fmt.Errorf("payment intent ID is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	stored, ok := g.intents.Load(intentID)
	if !ok {
		return nil, fmt.Errorf("payment intent not found: %s", intentID)
	}

	intent := stored.(*PaymentIntentResponse)
	copied := *intent
	return &copied, nil
}

// SetIntentStatus drives a stored intent to the given status (for tests)
func (g *MockGateway) SetIntentStatus(intentID, status, failureReason string) error {
	stored, ok := g.intents.Load(intentID)
	if !ok {
		return fmt.Errorf("payment intent not found: %s", intentID)
	}

	intent := stored.(*PaymentIntentResponse)
	intent.Status = status
	intent.FailureReason = failureReason
	g.intents.Store(intentID, intent)
	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}
