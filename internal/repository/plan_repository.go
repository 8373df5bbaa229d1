package repository

import (
	"context"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// PlanRepository provides access to membership plans
type PlanRepository interface {
	// Create persists a new plan
	Create(ctx context.Context, plan *domain.Plan) error

	// GetByID loads a plan by ID
	GetByID(ctx context.Context, id string) (*domain.Plan, error)

	// ListActive returns all purchasable plans
	ListActive(ctx context.Context) ([]*domain.Plan, error)
}
