package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

// MembershipHandler handles membership lifecycle HTTP requests
type MembershipHandler struct {
	membershipService service.MembershipService
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
	}
}

// GetStatus handles GET /memberships/status
func (h *MembershipHandler) GetStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.status")
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

	status, err := h.membershipService.GetMembershipStatus(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, status)
}

// Cancel handles POST /memberships/:id/cancel
func (h *MembershipHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	membershipID := c.Param("id")
	span.SetAttributes(attribute.String("membership_id", membershipID))

	var req dto.MembershipActionRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	membership, err := h.membershipService.CancelMembership(ctx, membershipID, req.Reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, membership)
}

// Suspend handles POST /memberships/:id/suspend
func (h *MembershipHandler) Suspend(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.suspend")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	membershipID := c.Param("id")
	span.SetAttributes(attribute.String("membership_id", membershipID))

	var req dto.MembershipActionRequest
	_ = c.ShouldBindJSON(&req)

	membership, err := h.membershipService.SuspendMembership(ctx, membershipID, req.Reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, membership)
}

// Reactivate handles POST /memberships/:id/reactivate
func (h *MembershipHandler) Reactivate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.reactivate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	membershipID := c.Param("id")
	span.SetAttributes(attribute.String("membership_id", membershipID))

	membership, err := h.membershipService.ReactivateMembership(ctx, membershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, membership)
}

// Extend handles POST /memberships/:id/extend
func (h *MembershipHandler) Extend(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.extend")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	membershipID := c.Param("id")
	span.SetAttributes(attribute.String("membership_id", membershipID))

	var req dto.ExtendMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	membership, err := h.membershipService.ExtendMembership(ctx, membershipID, req.Days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, membership)
}

// GetExpiring handles GET /memberships/expiring
func (h *MembershipHandler) GetExpiring(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.membership.expiring")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	withinDays := 0
	if v := c.Query("within_days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "within_days must be a positive integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		withinDays = parsed
	}

	memberships, err := h.membershipService.GetExpiringMemberships(ctx, withinDays)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}
