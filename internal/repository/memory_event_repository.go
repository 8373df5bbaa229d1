package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// MemoryEventRepository is an in-memory EventRepository for tests and local
// development. Mutations take the same conditional form as the SQL
// implementation, under a single mutex, so concurrency tests exercise the
// same single-winner semantics.
type MemoryEventRepository struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	seats  map[string]*domain.Seat // key: eventID + "/" + seatNumber
}

// NewMemoryEventRepository creates an empty in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
		seats:  make(map[string]*domain.Seat),
	}
}

var _ EventRepository = (*MemoryEventRepository)(nil)

func seatKey(eventID, seatNumber string) string {
	return eventID + "/" + seatNumber
}

// AddEvent seeds an event
func (r *MemoryEventRepository) AddEvent(event *domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events[event.ID] = &copied
}

// AddSeat seeds a seat
func (r *MemoryEventRepository) AddSeat(seat *domain.Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *seat
	r.seats[seatKey(seat.EventID, seat.SeatNumber)] = &copied
}

// GetEvent loads an event by ID
func (r *MemoryEventRepository) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

// ListSeats returns all seats of an event ordered by seat number
func (r *MemoryEventRepository) ListSeats(ctx context.Context, eventID string) ([]*domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seats []*domain.Seat
	for _, seat := range r.seats {
		if seat.EventID == eventID {
			copied := copySeat(seat)
			seats = append(seats, copied)
		}
	}

	// map iteration order is random
	sort.Slice(seats, func(i, j int) bool {
		return seats[i].SeatNumber < seats[j].SeatNumber
	})

	return seats, nil
}

// GetSeat loads a single seat
func (r *MemoryEventRepository) GetSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[seatKey(eventID, seatNumber)]
	if !ok {
		return nil, domain.ErrSeatNotFound
	}
	return copySeat(seat), nil
}

// ReleaseExpiredSeats returns every lapsed hold of the event to the available pool
func (r *MemoryEventRepository) ReleaseExpiredSeats(ctx context.Context, eventID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var released int64
	for _, seat := range r.seats {
		if seat.EventID != eventID {
			continue
		}
		if seat.Status == domain.SeatStatusReserved && seat.HoldExpiresAt != nil && seat.HoldExpiresAt.Before(now) {
			seat.Status = domain.SeatStatusAvailable
			seat.HolderID = nil
			seat.HoldExpiresAt = nil
			seat.UpdatedAt = now
			released++
		}
	}

	return released, nil
}

// ReserveSeat conditionally moves an available seat to reserved
func (r *MemoryEventRepository) ReserveSeat(ctx context.Context, eventID, seatNumber, userID string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[seatKey(eventID, seatNumber)]
	if !ok || seat.Status != domain.SeatStatusAvailable {
		return false, nil
	}

	seat.Status = domain.SeatStatusReserved
	seat.HolderID = &userID
	seat.HoldExpiresAt = &expiresAt
	seat.UpdatedAt = time.Now()
	return true, nil
}

// BookSeat conditionally moves a reserved seat to booked
func (r *MemoryEventRepository) BookSeat(ctx context.Context, eventID, seatNumber, userID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[seatKey(eventID, seatNumber)]
	if !ok || seat.Status != domain.SeatStatusReserved {
		return false, nil
	}
	if seat.HolderID == nil || *seat.HolderID != userID {
		return false, nil
	}
	if seat.HoldExpiresAt == nil || seat.HoldExpiresAt.Before(now) {
		return false, nil
	}

	seat.Status = domain.SeatStatusBooked
	seat.HoldExpiresAt = nil
	seat.UpdatedAt = now
	return true, nil
}

// ReleaseSeat conditionally returns a seat held by the user to available
func (r *MemoryEventRepository) ReleaseSeat(ctx context.Context, eventID, seatNumber, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, ok := r.seats[seatKey(eventID, seatNumber)]
	if !ok || seat.Status != domain.SeatStatusReserved {
		return false, nil
	}
	if seat.HolderID == nil || *seat.HolderID != userID {
		return false, nil
	}

	seat.Status = domain.SeatStatusAvailable
	seat.HolderID = nil
	seat.HoldExpiresAt = nil
	seat.UpdatedAt = time.Now()
	return true, nil
}

func copySeat(seat *domain.Seat) *domain.Seat {
	copied := *seat
	if seat.HolderID != nil {
		holder := *seat.HolderID
		copied.HolderID = &holder
	}
	if seat.HoldExpiresAt != nil {
		expiry := *seat.HoldExpiresAt
		copied.HoldExpiresAt = &expiry
	}
	return &copied
}
