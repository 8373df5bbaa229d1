package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/metrics"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

// ReservationService defines seat reservation business logic. Holds expire
// lazily: the lapsed ones are swept back to the available pool on the next
// read or write touching the event, never by a background job.
type ReservationService interface {
	// ListSeats returns all seats of the event with lapsed holds released
	ListSeats(ctx context.Context, eventID string) ([]*domain.Seat, error)

	// GetSeat returns a single seat
	GetSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error)

	// ReserveSeat places a hold on an available seat for the user
	ReserveSeat(ctx context.Context, eventID, seatNumber, userID string) (*domain.Seat, error)

	// BookSeat converts the user's live hold into a booking
	BookSeat(ctx context.Context, eventID, seatNumber, userID string) (*domain.Seat, error)

	// ReleaseSeat voluntarily releases the user's hold
	ReleaseSeat(ctx context.Context, eventID, seatNumber, userID string) error
}

// reservationService implements ReservationService
type reservationService struct {
	eventRepo repository.EventRepository
	holdTTL   time.Duration
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	HoldTTL time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(eventRepo repository.EventRepository, cfg *ReservationServiceConfig) ReservationService {
	ttl := 10 * time.Minute
	if cfg != nil && cfg.HoldTTL > 0 {
		ttl = cfg.HoldTTL
	}
	return &reservationService{
		eventRepo: eventRepo,
		holdTTL:   ttl,
	}
}

// ListSeats returns all seats of the event with lapsed holds released
func (s *reservationService) ListSeats(ctx context.Context, eventID string) ([]*domain.Seat, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_seats")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	if _, err := s.eventRepo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	if err := s.sweepExpiredHolds(ctx, eventID); err != nil {
		return nil, err
	}

	return s.eventRepo.ListSeats(ctx, eventID)
}

// GetSeat returns a single seat
func (s *reservationService) GetSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get_seat")
	defer span.End()

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if seatNumber == "" {
		return nil, domain.ErrInvalidSeatNumber
	}

	if err := s.sweepExpiredHolds(ctx, eventID); err != nil {
		return nil, err
	}

	return s.eventRepo.GetSeat(ctx, eventID, seatNumber)
}

// ReserveSeat places a hold on an available seat for the user
func (s *reservationService) ReserveSeat(ctx context.Context, eventID, seatNumber, userID string) (*domain.Seat, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.reserve_seat")
	defer span.End()

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if seatNumber == "" {
		return nil, domain.ErrInvalidSeatNumber
	}
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("seat_number", seatNumber),
		attribute.String("user_id", userID),
	)

	if err := s.sweepExpiredHolds(ctx, eventID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	won, err := s.eventRepo.ReserveSeat(ctx, eventID, seatNumber, userID, now.Add(s.holdTTL))
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	if !won {
		// Distinguish a missing seat from a lost race
		if _, err := s.eventRepo.GetSeat(ctx, eventID, seatNumber); err != nil {
			return nil, err
		}
		metrics.RecordReserveConflict(ctx, eventID)
		span.SetStatus(codes.Error, "seat not available")
		return nil, domain.ErrSeatNotAvailable
	}

	metrics.RecordSeatReserved(ctx, eventID)
	logger.InfoCtx(ctx, "seat reserved",
		zap.String("event_id", eventID),
		zap.String("seat_number", seatNumber),
		zap.String("user_id", userID),
	)

	return s.eventRepo.GetSeat(ctx, eventID, seatNumber)
}

// BookSeat converts the user's live hold into a booking
func (s *reservationService) BookSeat(ctx context.Context, eventID, seatNumber, userID string) (*domain.Seat, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.book_seat")
	defer span.End()

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if seatNumber == "" {
		return nil, domain.ErrInvalidSeatNumber
	}
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("seat_number", seatNumber),
		attribute.String("user_id", userID),
	)

	now := time.Now().UTC()
	won, err := s.eventRepo.BookSeat(ctx, eventID, seatNumber, userID, now)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	if !won {
		return nil, s.classifyBookFailure(ctx, eventID, seatNumber, userID, now)
	}

	metrics.RecordSeatBooked(ctx, eventID)
	logger.InfoCtx(ctx, "seat booked",
		zap.String("event_id", eventID),
		zap.String("seat_number", seatNumber),
		zap.String("user_id", userID),
	)

	return s.eventRepo.GetSeat(ctx, eventID, seatNumber)
}

// ReleaseSeat voluntarily releases the user's hold
func (s *reservationService) ReleaseSeat(ctx context.Context, eventID, seatNumber, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.release_seat")
	defer span.End()

	if eventID == "" {
		return domain.ErrInvalidEventID
	}
	if seatNumber == "" {
		return domain.ErrInvalidSeatNumber
	}
	if userID == "" {
		return domain.ErrInvalidUserID
	}

	won, err := s.eventRepo.ReleaseSeat(ctx, eventID, seatNumber, userID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return err
	}
	if !won {
		if _, err := s.eventRepo.GetSeat(ctx, eventID, seatNumber); err != nil {
			return err
		}
		return domain.ErrSeatNotHeldByUser
	}

	metrics.RecordSeatReleased(ctx, eventID)
	return nil
}

// sweepExpiredHolds returns lapsed holds of the event to the available pool
func (s *reservationService) sweepExpiredHolds(ctx context.Context, eventID string) error {
	released, err := s.eventRepo.ReleaseExpiredSeats(ctx, eventID, time.Now().UTC())
	if err != nil {
		return err
	}
	if released > 0 {
		metrics.RecordHoldsExpired(ctx, eventID, released)
		logger.InfoCtx(ctx, "released expired seat holds",
			zap.String("event_id", eventID),
			zap.Int64("released", released),
		)
	}
	return nil
}

// classifyBookFailure turns a lost book CAS into the precise domain error.
// A hold that belongs to this user but lapsed is released immediately so the
// seat goes back on sale.
func (s *reservationService) classifyBookFailure(ctx context.Context, eventID, seatNumber, userID string, now time.Time) error {
	seat, err := s.eventRepo.GetSeat(ctx, eventID, seatNumber)
	if err != nil {
		return err
	}

	if seat.IsBooked() {
		return domain.ErrSeatAlreadyBooked
	}
	if seat.IsHeldBy(userID) && seat.IsHoldExpired(now) {
		if _, err := s.eventRepo.ReleaseExpiredSeats(ctx, eventID, now); err != nil {
			logger.WarnCtx(ctx, "failed to release expired hold",
				zap.String("event_id", eventID),
				zap.String("seat_number", seatNumber),
				zap.Error(err),
			)
		}
		return domain.ErrReservationExpired
	}
	return domain.ErrSeatNotHeldByUser
}
