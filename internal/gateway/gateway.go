package gateway

import "context"

// PaymentGateway abstracts the payment processor. Amounts are in minor units
// (pence) throughout.
type PaymentGateway interface {
	// CreateCustomer creates a processor customer for a member
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error)

	// CreatePaymentIntent creates a payment intent and returns its client secret
	CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error)

	// GetPaymentIntent fetches the current state of a payment intent
	GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntentResponse, error)

	// Name returns the gateway name
	Name() string
}

// CreateCustomerRequest holds parameters for creating a processor customer
type CreateCustomerRequest struct {
	UserID string
	Email  string
	Name   string
}

// CustomerResponse is the result of creating a processor customer
type CustomerResponse struct {
	CustomerID string
	Email      string
	Name       string
}

// PaymentIntentRequest holds parameters for creating a payment intent
type PaymentIntentRequest struct {
	Amount     int64 // minor units
	Currency   string
	CustomerID string
	Metadata   map[string]string
}

// PaymentIntentResponse is the processor's view of a payment intent. The
// client secret is opaque and must never be logged.
type PaymentIntentResponse struct {
	IntentID      string
	ClientSecret  string
	Status        string
	Amount        int64 // minor units
	Currency      string
	FailureReason string
}
