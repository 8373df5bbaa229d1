package domain

import (
	"errors"
	"testing"
	"time"
)

func availableSeat() *Seat {
	return &Seat{
		EventID:    "event-001",
		SeatNumber: "A1",
		Price:      5000,
		Currency:   "gbp",
		Status:     SeatStatusAvailable,
	}
}

func TestSeat_Reserve(t *testing.T) {
	now := time.Now().UTC()

	t.Run("available seat can be reserved", func(t *testing.T) {
		seat := availableSeat()
		if err := seat.Reserve("user-001", 10*time.Minute, now); err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		if seat.Status != SeatStatusReserved {
			t.Errorf("Status = %v, want %v", seat.Status, SeatStatusReserved)
		}
		if seat.HolderID == nil || *seat.HolderID != "user-001" {
			t.Errorf("HolderID = %v, want user-001", seat.HolderID)
		}
		if seat.HoldExpiresAt == nil || !seat.HoldExpiresAt.Equal(now.Add(10*time.Minute)) {
			t.Errorf("HoldExpiresAt = %v, want %v", seat.HoldExpiresAt, now.Add(10*time.Minute))
		}
	})

	t.Run("reserved seat cannot be reserved again", func(t *testing.T) {
		seat := availableSeat()
		_ = seat.Reserve("user-001", 10*time.Minute, now)
		if err := seat.Reserve("user-002", 10*time.Minute, now); !errors.Is(err, ErrSeatNotAvailable) {
			t.Errorf("Reserve() error = %v, want %v", err, ErrSeatNotAvailable)
		}
	})

	t.Run("booked seat cannot be reserved", func(t *testing.T) {
		seat := availableSeat()
		seat.Status = SeatStatusBooked
		if err := seat.Reserve("user-001", 10*time.Minute, now); !errors.Is(err, ErrSeatNotAvailable) {
			t.Errorf("Reserve() error = %v, want %v", err, ErrSeatNotAvailable)
		}
	})
}

func TestSeat_Book(t *testing.T) {
	now := time.Now().UTC()

	t.Run("holder can book while hold is live", func(t *testing.T) {
		seat := availableSeat()
		_ = seat.Reserve("user-001", 10*time.Minute, now)
		if err := seat.Book("user-001", now.Add(time.Minute)); err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if seat.Status != SeatStatusBooked {
			t.Errorf("Status = %v, want %v", seat.Status, SeatStatusBooked)
		}
		if seat.HoldExpiresAt != nil {
			t.Errorf("HoldExpiresAt = %v, want nil", seat.HoldExpiresAt)
		}
	})

	t.Run("non-holder cannot book", func(t *testing.T) {
		seat := availableSeat()
		_ = seat.Reserve("user-001", 10*time.Minute, now)
		if err := seat.Book("user-002", now); !errors.Is(err, ErrSeatNotHeldByUser) {
			t.Errorf("Book() error = %v, want %v", err, ErrSeatNotHeldByUser)
		}
	})

	t.Run("lapsed hold cannot be booked", func(t *testing.T) {
		seat := availableSeat()
		_ = seat.Reserve("user-001", 10*time.Minute, now)
		if err := seat.Book("user-001", now.Add(11*time.Minute)); !errors.Is(err, ErrReservationExpired) {
			t.Errorf("Book() error = %v, want %v", err, ErrReservationExpired)
		}
	})

	t.Run("booked seat stays booked", func(t *testing.T) {
		seat := availableSeat()
		_ = seat.Reserve("user-001", 10*time.Minute, now)
		_ = seat.Book("user-001", now)
		if err := seat.Book("user-001", now); !errors.Is(err, ErrSeatAlreadyBooked) {
			t.Errorf("Book() error = %v, want %v", err, ErrSeatAlreadyBooked)
		}
	})

	t.Run("available seat cannot be booked directly", func(t *testing.T) {
		seat := availableSeat()
		if err := seat.Book("user-001", now); !errors.Is(err, ErrSeatNotHeldByUser) {
			t.Errorf("Book() error = %v, want %v", err, ErrSeatNotHeldByUser)
		}
	})
}

func TestSeat_Release(t *testing.T) {
	now := time.Now().UTC()
	seat := availableSeat()
	_ = seat.Reserve("user-001", 10*time.Minute, now)

	seat.Release(now)

	if seat.Status != SeatStatusAvailable {
		t.Errorf("Status = %v, want %v", seat.Status, SeatStatusAvailable)
	}
	if seat.HolderID != nil {
		t.Errorf("HolderID = %v, want nil", seat.HolderID)
	}
	if seat.HoldExpiresAt != nil {
		t.Errorf("HoldExpiresAt = %v, want nil", seat.HoldExpiresAt)
	}
}

func TestSeat_IsHoldExpired(t *testing.T) {
	now := time.Now().UTC()
	seat := availableSeat()
	_ = seat.Reserve("user-001", 10*time.Minute, now)

	if seat.IsHoldExpired(now.Add(9 * time.Minute)) {
		t.Error("hold should still be live at 9 minutes")
	}
	if !seat.IsHoldExpired(now.Add(11 * time.Minute)) {
		t.Error("hold should be expired at 11 minutes")
	}
}
