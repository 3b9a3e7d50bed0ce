package bidding

import (
	"fmt"

	"autobid/internal/biddingerrors"
	"autobid/internal/models"
)

// LockState is the bidding direction a user is held to on one vehicle
type LockState int

const (
	Unset LockState = iota
	LockedUpward
	LockedDownward
)

func (s LockState) String() string {
	switch s {
	case LockedUpward:
		return "locked_upward"
	case LockedDownward:
		return "locked_downward"
	}
	return "unset"
}

// Direction returns the direction the state locks to, or "" when unset
func (s LockState) Direction() models.BiddingType {
	switch s {
	case LockedUpward:
		return models.BiddingUpward
	case LockedDownward:
		return models.BiddingDownward
	}
	return ""
}

// LockFromHistory derives the lock from a user's prior bids on a vehicle.
// The most recent bid decides; bids with equal timestamps keep the order they were given in.
func LockFromHistory(prior []models.Bid) LockState {
	if len(prior) == 0 {
		return Unset
	}

	latest := prior[0]
	for _, b := range prior[1:] {
		if b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}

	direction := latest.BiddingType
	if direction == "" {
		direction = latest.Type
	}
	switch direction {
	case models.BiddingUpward:
		return LockedUpward
	case models.BiddingDownward:
		return LockedDownward
	}
	return Unset
}

// DirectionLockError rejects a bid whose direction differs from the user's locked direction
type DirectionLockError struct {
	Locked models.BiddingType
}

func (e *DirectionLockError) Error() string {
	return fmt.Sprintf("%s: %s", biddingerrors.ErrDirectionLocked, e.UserReason())
}

func (e *DirectionLockError) Unwrap() error {
	return biddingerrors.ErrDirectionLocked
}

func (e *DirectionLockError) UserReason() string {
	return fmt.Sprintf("you are locked to %s bidding for this vehicle", e.Locked)
}

// CheckDirection allows requested when the user has no prior bids or is locked to the same direction
func CheckDirection(prior []models.Bid, requested models.BiddingType) error {
	state := LockFromHistory(prior)
	if state == Unset || state.Direction() == requested {
		return nil
	}
	return &DirectionLockError{Locked: state.Direction()}
}
