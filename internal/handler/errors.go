package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/domain"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/dto"
)

// handleError maps domain errors onto HTTP status codes: missing resources
// are 404, state conflicts 409, lapsed holds 410, processor failures 502 and
// bad input 400.
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case domain.IsConflictError(err):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "CONFLICT",
		})
	case domain.IsExpiredError(err):
		c.JSON(http.StatusGone, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EXPIRED",
		})
	case domain.IsExternalServiceError(err):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "payment processor unavailable",
			Code:    "EXTERNAL_SERVICE_ERROR",
			Message: "Please try again shortly",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
