package dto

// CreatePaymentIntentRequest is the request body for starting a plan purchase
type CreatePaymentIntentRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// PaymentIntentResponse is returned once at intent creation. The client
// secret is handed to the caller here and nowhere else.
type PaymentIntentResponse struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentResponse is the API view of a payment record
type PaymentResponse struct {
	ID                    string `json:"id"`
	UserID                string `json:"user_id"`
	PlanID                string `json:"plan_id"`
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
	Status                string `json:"status"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`
	FailureReason         string `json:"failure_reason,omitempty"`
	PaidAt                string `json:"paid_at,omitempty"`
	FailedAt              string `json:"failed_at,omitempty"`
	CreatedAt             string `json:"created_at"`
}
