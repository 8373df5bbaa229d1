package domain

import "time"

// Plan represents a membership plan that can be purchased
type Plan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Features        []string  `json:"features,omitempty"`
	Price           int64     `json:"price"` // minor units
	Currency        string    `json:"currency"`
	StripeProductID string    `json:"stripe_product_id,omitempty"`
	StripePriceID   string    `json:"stripe_price_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
