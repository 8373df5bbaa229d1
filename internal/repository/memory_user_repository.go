package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MemoryUserRepository is an in-memory UserRepository for tests and local
// development
type MemoryUserRepository struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	byEmail map[string]string // email -> user ID
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

var _ UserRepository = (*MemoryUserRepository)(nil)

// Create persists a new user
func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// GetByEmail retrieves a user by email
func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *r.users[id]
	return &copied, nil
}

// SetStripeCustomerID caches the processor customer handle on the user record
func (r *MemoryUserRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.StripeCustomerID = customerID
	user.UpdatedAt = time.Now()
	return nil
}
