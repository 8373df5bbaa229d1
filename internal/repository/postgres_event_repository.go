package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db *database.PostgresDB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *database.PostgresDB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

var _ EventRepository = (*PostgresEventRepository)(nil)

const seatColumns = `
	event_id, seat_number, price, currency, status, holder_id, hold_expires_at, created_at, updated_at
`

// GetEvent retrieves an event by ID
func (r *PostgresEventRepository) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `SELECT id, name, description, venue, starts_at, created_at, updated_at FROM events WHERE id = $1`

	var event domain.Event
	var description, venue *string
	err := r.db.Pool().QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.Name,
		&description,
		&venue,
		&event.StartsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	if description != nil {
		event.Description = *description
	}
	if venue != nil {
		event.Venue = *venue
	}
	return &event, nil
}

// ListSeats retrieves all seats of an event ordered by seat number
func (r *PostgresEventRepository) ListSeats(ctx context.Context, eventID string) ([]*domain.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM event_seats WHERE event_id = $1 ORDER BY seat_number`

	rows, err := r.db.Pool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seats: %w", err)
	}
	defer rows.Close()

	var seats []*domain.Seat
	for rows.Next() {
		seat, err := scanSeatFromRows(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seats: %w", err)
	}

	return seats, nil
}

// GetSeat retrieves a single seat
func (r *PostgresEventRepository) GetSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM event_seats WHERE event_id = $1 AND seat_number = $2`
	return scanSeat(r.db.Pool().QueryRow(ctx, query, eventID, seatNumber))
}

// ReleaseExpiredSeats returns every lapsed hold of the event to the
// available pool
func (r *PostgresEventRepository) ReleaseExpiredSeats(ctx context.Context, eventID string, now time.Time) (int64, error) {
	query := `
		UPDATE event_seats
		SET status = 'available', holder_id = NULL, hold_expires_at = NULL, updated_at = $2
		WHERE event_id = $1 AND status = 'reserved' AND hold_expires_at < $2`

	result, err := r.db.Pool().Exec(ctx, query, eventID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired seats: %w", err)
	}
	return result.RowsAffected(), nil
}

// ReserveSeat conditionally moves an available seat to reserved. Zero rows
// affected means the seat was missing or not available.
func (r *PostgresEventRepository) ReserveSeat(ctx context.Context, eventID, seatNumber, userID string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE event_seats
		SET status = 'reserved', holder_id = $3, hold_expires_at = $4, updated_at = NOW()
		WHERE event_id = $1 AND seat_number = $2 AND status = 'available'`

	result, err := r.db.Pool().Exec(ctx, query, eventID, seatNumber, userID, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to reserve seat: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// BookSeat conditionally moves a reserved seat to booked, guarded by holder
// and hold expiry
func (r *PostgresEventRepository) BookSeat(ctx context.Context, eventID, seatNumber, userID string, now time.Time) (bool, error) {
	query := `
		UPDATE event_seats
		SET status = 'booked', hold_expires_at = NULL, updated_at = $4
		WHERE event_id = $1 AND seat_number = $2 AND status = 'reserved'
		  AND holder_id = $3 AND hold_expires_at >= $4`

	result, err := r.db.Pool().Exec(ctx, query, eventID, seatNumber, userID, now)
	if err != nil {
		return false, fmt.Errorf("failed to book seat: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ReleaseSeat conditionally returns a seat held by the user to available
func (r *PostgresEventRepository) ReleaseSeat(ctx context.Context, eventID, seatNumber, userID string) (bool, error) {
	query := `
		UPDATE event_seats
		SET status = 'available', holder_id = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE event_id = $1 AND seat_number = $2 AND status = 'reserved' AND holder_id = $3`

	result, err := r.db.Pool().Exec(ctx, query, eventID, seatNumber, userID)
	if err != nil {
		return false, fmt.Errorf("failed to release seat: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanSeat(row pgx.Row) (*domain.Seat, error) {
	var seat domain.Seat
	var status string

	err := row.Scan(
		&seat.EventID,
		&seat.SeatNumber,
		&seat.Price,
		&seat.Currency,
		&status,
		&seat.HolderID,
		&seat.HoldExpiresAt,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to scan seat: %w", err)
	}

	seat.Status = domain.SeatStatus(status)
	return &seat, nil
}

func scanSeatFromRows(rows pgx.Rows) (*domain.Seat, error) {
	var seat domain.Seat
	var status string

	err := rows.Scan(
		&seat.EventID,
		&seat.SeatNumber,
		&seat.Price,
		&seat.Currency,
		&status,
		&seat.HolderID,
		&seat.HoldExpiresAt,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan seat: %w", err)
	}

	seat.Status = domain.SeatStatus(status)
	return &seat, nil
}
