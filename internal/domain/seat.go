package domain

import (
	"time"
)

// SeatStatus represents the state of a seat (matches DB ENUM)
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusBooked    SeatStatus = "booked"
)

// Seat represents a single seat of an event. A seat is identified by its
// event and seat number. Reserved seats carry the holder and a hold expiry;
// booked is terminal.
type Seat struct {
	EventID       string     `json:"event_id"`
	SeatNumber    string     `json:"seat_number"`
	Price         int64      `json:"price"` // minor units
	Currency      string     `json:"currency"`
	Status        SeatStatus `json:"status"`
	HolderID      *string    `json:"holder_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsAvailable returns true if the seat can be reserved
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}

// IsBooked returns true if the seat is permanently taken
func (s *Seat) IsBooked() bool {
	return s.Status == SeatStatusBooked
}

// IsHeldBy returns true if the seat is reserved by the given user
func (s *Seat) IsHeldBy(userID string) bool {
	return s.Status == SeatStatusReserved && s.HolderID != nil && *s.HolderID == userID
}

// IsHoldExpired returns true if the seat is reserved but the hold has lapsed
func (s *Seat) IsHoldExpired(now time.Time) bool {
	return s.Status == SeatStatusReserved && s.HoldExpiresAt != nil && s.HoldExpiresAt.Before(now)
}

// Reserve transitions the seat from available to reserved for the given user
func (s *Seat) Reserve(userID string, ttl time.Duration, now time.Time) error {
	if s.Status != SeatStatusAvailable {
		return ErrSeatNotAvailable
	}
	expiry := now.Add(ttl)
	s.Status = SeatStatusReserved
	s.HolderID = &userID
	s.HoldExpiresAt = &expiry
	s.UpdatedAt = now
	return nil
}

// Book transitions the seat from reserved to booked. Only the holder can
// book, and only while the hold is live.
func (s *Seat) Book(userID string, now time.Time) error {
	if s.Status == SeatStatusBooked {
		return ErrSeatAlreadyBooked
	}
	if !s.IsHeldBy(userID) {
		return ErrSeatNotHeldByUser
	}
	if s.IsHoldExpired(now) {
		return ErrReservationExpired
	}
	s.Status = SeatStatusBooked
	s.HoldExpiresAt = nil
	s.UpdatedAt = now
	return nil
}

// Release returns a reserved seat to the available pool
func (s *Seat) Release(now time.Time) {
	s.Status = SeatStatusAvailable
	s.HolderID = nil
	s.HoldExpiresAt = nil
	s.UpdatedAt = now
}
