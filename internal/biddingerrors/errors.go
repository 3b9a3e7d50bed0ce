package biddingerrors

import (
	"errors"
	"fmt"
)

// Lookup errors
var (
	ErrNotFound        = errors.New("not found")
	ErrVehicleNotFound = fmt.Errorf("vehicle %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

// business rule errors
var (
	ErrAuctionClosed     = errors.New("auction closed")
	ErrSelfBidForbidden  = errors.New("cannot bid on own vehicle")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDirectionLocked   = errors.New("bidding direction locked")
	ErrInvalidBidAmount  = errors.New("invalid bid amount")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStalePrice        = errors.New("vehicle price changed concurrently")
)

// access errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrEmailTaken   = errors.New("email already registered")
)

// ErrLedgerMismatch is returned when a user's ledger does not reproduce the cached balance
var ErrLedgerMismatch = errors.New("wallet ledger mismatch")

// ReasonError attaches a user-facing reason to a sentinel error
type ReasonError struct {
	Kind   error
	Reason string
}

func (e *ReasonError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ReasonError) Unwrap() error {
	return e.Kind
}

// WithReason wraps kind with a message that is safe to show to the caller
func WithReason(kind error, format string, args ...any) error {
	return &ReasonError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Reason returns the user-facing reason carried by err, if any
func Reason(err error) (string, bool) {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	var rp interface{ UserReason() string }
	if errors.As(err, &rp) {
		return rp.UserReason(), true
	}
	return "", false
}
