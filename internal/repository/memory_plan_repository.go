package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MemoryPlanRepository is an in-memory PlanRepository for tests and local
// development
type MemoryPlanRepository struct {
	mu    sync.Mutex
	plans map[string]*domain.Plan
}

// NewMemoryPlanRepository creates an empty in-memory plan repository
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{
		plans: make(map[string]*domain.Plan),
	}
}

var _ PlanRepository = (*MemoryPlanRepository)(nil)

// Create persists a new plan
func (r *MemoryPlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := copyPlan(plan)
	r.plans[plan.ID] = copied
	return nil
}

// GetByID retrieves a plan by ID
func (r *MemoryPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return copyPlan(plan), nil
}

// ListActive retrieves all purchasable plans ordered by price
func (r *MemoryPlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var plans []*domain.Plan
	for _, plan := range r.plans {
		if plan.IsActive {
			plans = append(plans, copyPlan(plan))
		}
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].Price < plans[j].Price
	})

	return plans, nil
}

func copyPlan(plan *domain.Plan) *domain.Plan {
	copied := *plan
	if plan.Features != nil {
		copied.Features = append([]string(nil), plan.Features...)
	}
	return &copied
}
