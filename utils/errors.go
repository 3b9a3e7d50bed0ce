package utils

import (
	"errors"
	"net/http"

	"autobid/internal/biddingerrors"
)

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// Errors carrying a user-facing reason return that reason.
func MapErrorToHTTP(err error) (int, string) {
	status, fallback := statusFor(err)
	if status == http.StatusInternalServerError {
		return status, fallback
	}
	if reason, ok := biddingerrors.Reason(err); ok {
		return status, reason
	}
	return status, fallback
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrVehicleNotFound):
		return http.StatusNotFound, "vehicle not found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, biddingerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, biddingerrors.ErrForbidden):
		return http.StatusForbidden, "you are not allowed to perform this action"
	case errors.Is(err, biddingerrors.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, biddingerrors.ErrStalePrice):
		return http.StatusConflict, "the price changed while your bid was processed, please retry"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusBadRequest, "bidding has ended for this vehicle"
	case errors.Is(err, biddingerrors.ErrSelfBidForbidden):
		return http.StatusBadRequest, "you cannot bid on your own vehicle"
	case errors.Is(err, biddingerrors.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient wallet balance"
	case errors.Is(err, biddingerrors.ErrDirectionLocked):
		return http.StatusBadRequest, "bidding direction is locked for this vehicle"
	case errors.Is(err, biddingerrors.ErrInvalidBidAmount):
		return http.StatusBadRequest, "invalid bid amount"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, biddingerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
