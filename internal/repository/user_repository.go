package repository

import (
	"context"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// UserRepository provides access to member accounts
type UserRepository interface {
	// Create persists a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID loads a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail loads a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// SetStripeCustomerID caches the processor customer handle on the user
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
}
