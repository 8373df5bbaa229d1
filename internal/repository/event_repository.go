package repository

import (
	"context"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
)

// EventRepository provides access to events and their seat ledger. All seat
// mutations are conditional: they apply only when the row is in the expected
// state and report whether they took effect, so concurrent writers cannot
// both win.
type EventRepository interface {
	// GetEvent loads an event by ID
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)

	// ListSeats returns all seats of an event
	ListSeats(ctx context.Context, eventID string) ([]*domain.Seat, error)

	// GetSeat loads a single seat
	GetSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error)

	// ReleaseExpiredSeats flips every reserved seat of the event whose hold
	// lapsed before now back to available. Returns the number released.
	ReleaseExpiredSeats(ctx context.Context, eventID string, now time.Time) (int64, error)

	// ReserveSeat atomically moves an available seat to reserved for the
	// user. Returns false if the seat was not available.
	ReserveSeat(ctx context.Context, eventID, seatNumber, userID string, expiresAt time.Time) (bool, error)

	// BookSeat atomically moves a reserved seat to booked, but only if the
	// user holds it and the hold is still live at now. Returns false
	// otherwise.
	BookSeat(ctx context.Context, eventID, seatNumber, userID string, now time.Time) (bool, error)

	// ReleaseSeat atomically returns a seat reserved by the user to
	// available. Returns false if the user does not hold it.
	ReleaseSeat(ctx context.Context, eventID, seatNumber, userID string) (bool, error)
}
