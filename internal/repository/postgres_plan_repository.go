package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
)

// PostgresPlanRepository implements PlanRepository using PostgreSQL
type PostgresPlanRepository struct {
	db *database.PostgresDB
}

// NewPostgresPlanRepository creates a new PostgreSQL plan repository
func NewPostgresPlanRepository(db *database.PostgresDB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

var _ PlanRepository = (*PostgresPlanRepository)(nil)

const planColumns = `
	id, name, description, features, price, currency,
	stripe_product_id, stripe_price_id, is_active, created_at, updated_at
`

// Create persists a new plan
func (r *PostgresPlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO plans (
			id, name, description, features, price, currency,
			stripe_product_id, stripe_price_id, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		plan.ID,
		plan.Name,
		nullString(plan.Description),
		plan.Features,
		plan.Price,
		plan.Currency,
		nullString(plan.StripeProductID),
		nullString(plan.StripePriceID),
		plan.IsActive,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by ID
func (r *PostgresPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.db.Pool().QueryRow(ctx, query, id))
}

// ListActive retrieves all purchasable plans ordered by price
func (r *PostgresPlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE is_active = TRUE ORDER BY price`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		plan, err := scanPlanFromRows(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, nil
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var plan domain.Plan
	var description, productID, priceID *string

	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&description,
		&plan.Features,
		&plan.Price,
		&plan.Currency,
		&productID,
		&priceID,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	if description != nil {
		plan.Description = *description
	}
	if productID != nil {
		plan.StripeProductID = *productID
	}
	if priceID != nil {
		plan.StripePriceID = *priceID
	}

	return &plan, nil
}

func scanPlanFromRows(rows pgx.Rows) (*domain.Plan, error) {
	var plan domain.Plan
	var description, productID, priceID *string

	err := rows.Scan(
		&plan.ID,
		&plan.Name,
		&description,
		&plan.Features,
		&plan.Price,
		&plan.Currency,
		&productID,
		&priceID,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	if description != nil {
		plan.Description = *description
	}
	if productID != nil {
		plan.StripeProductID = *productID
	}
	if priceID != nil {
		plan.StripePriceID = *priceID
	}

	return &plan, nil
}
