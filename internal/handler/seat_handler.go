package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

// SeatHandler handles seat reservation HTTP requests
type SeatHandler struct {
	reservationService service.ReservationService
}

// NewSeatHandler creates a new seat handler
func NewSeatHandler(reservationService service.ReservationService) *SeatHandler {
	return &SeatHandler{
		reservationService: reservationService,
	}
}

// ListSeats handles GET /events/:id/seats
func (h *SeatHandler) ListSeats(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seat.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	seats, err := h.reservationService.ListSeats(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, gin.H{"seats": seats})
}

// ReserveSeat handles POST /events/:id/seats/:number/reserve
func (h *SeatHandler) ReserveSeat(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seat.reserve")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	seatNumber := c.Param("number")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("seat_number", seatNumber),
		attribute.String("user_id", userID),
	)

	seat, err := h.reservationService.ReserveSeat(ctx, eventID, seatNumber, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, seat)
}

// BookSeat handles POST /events/:id/seats/:number/book
func (h *SeatHandler) BookSeat(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seat.book")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	seatNumber := c.Param("number")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("seat_number", seatNumber),
		attribute.String("user_id", userID),
	)

	seat, err := h.reservationService.BookSeat(ctx, eventID, seatNumber, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, seat)
}

// ReleaseSeat handles POST /events/:id/seats/:number/release
func (h *SeatHandler) ReleaseSeat(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seat.release")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	seatNumber := c.Param("number")

	if err := h.reservationService.ReleaseSeat(ctx, eventID, seatNumber, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, gin.H{"released": true})
}
