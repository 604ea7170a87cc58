package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParcelNotFound         = errors.New("parcel not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidWeight          = fmt.Errorf("%w: weight must be a finite number of at least %.1f kg", ErrInvalidInput, MinWeightKg)
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnauthorized           = errors.New("not authorized for this parcel")
	ErrInvalidState           = errors.New("invalid parcel state")
	ErrReceiverMismatch       = errors.New("receiver information mismatch")
	ErrNoRegisteredReceiver   = errors.New("no registered receiver found")
	ErrConcurrentModification = errors.New("parcel was modified concurrently")
	ErrDuplicateTrackingCode  = errors.New("tracking code already in use")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
)

// MinWeightKg is the lightest parcel accepted for pricing.
const MinWeightKg = 0.1

// TransitionError reports a rejected status move together with the statuses
// that would have been accepted from the current one.
type TransitionError struct {
	From    ParcelStatus
	To      ParcelStatus
	Allowed []ParcelStatus
}

func (e *TransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		names := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			names[i] = string(s)
		}
		allowed = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s: cannot move parcel from %s to %s (allowed: %s)",
		ErrInvalidTransition, e.From, e.To, allowed)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
