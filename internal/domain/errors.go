package domain

import (
	"errors"
	"fmt"
)

// Not found errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

// Conflict errors
var (
	ErrSeatNotAvailable        = errors.New("seat is not available")
	ErrSeatNotHeldByUser       = errors.New("seat is not held by this user")
	ErrSeatAlreadyBooked       = errors.New("seat is already booked")
	ErrActiveMembershipExists  = errors.New("user already has an active membership")
	ErrMembershipNotActive     = errors.New("membership is not active")
	ErrMembershipNotSuspended  = errors.New("membership is not suspended")
	ErrPaymentAlreadyExists    = errors.New("payment already exists")
	ErrMembershipAlreadyExists = errors.New("membership already exists for this payment")
)

// Expired errors
var (
	ErrReservationExpired = errors.New("seat reservation has expired")
)

// Validation errors
var (
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidEventID    = errors.New("invalid event ID")
	ErrInvalidSeatNumber = errors.New("invalid seat number")
	ErrInvalidPlanID     = errors.New("invalid plan ID")
	ErrInvalidPaymentID  = errors.New("invalid payment ID")
	ErrInvalidExtension  = errors.New("extension days must be positive")
)

// ExternalServiceError wraps a failure from an external dependency such as
// the payment processor
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError wraps err as an external service failure
func NewExternalServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Service: service, Err: err}
}

// IsNotFoundError returns true if the error is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrSeatNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrMembershipNotFound)
}

// IsConflictError returns true if the error is a state conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSeatNotAvailable) ||
		errors.Is(err, ErrSeatNotHeldByUser) ||
		errors.Is(err, ErrSeatAlreadyBooked) ||
		errors.Is(err, ErrActiveMembershipExists) ||
		errors.Is(err, ErrMembershipNotActive) ||
		errors.Is(err, ErrMembershipNotSuspended) ||
		errors.Is(err, ErrPaymentAlreadyExists) ||
		errors.Is(err, ErrMembershipAlreadyExists)
}

// IsExpiredError returns true if the error is an expiry error
func IsExpiredError(err error) bool {
	return errors.Is(err, ErrReservationExpired)
}

// IsValidationError returns true if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidSeatNumber) ||
		errors.Is(err, ErrInvalidPlanID) ||
		errors.Is(err, ErrInvalidPaymentID) ||
		errors.Is(err, ErrInvalidExtension)
}

// IsExternalServiceError returns true if the error came from an external dependency
func IsExternalServiceError(err error) bool {
	var extErr *ExternalServiceError
	return errors.As(err, &extErr)
}
