package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrSeatUnavailable    = errors.New("one or more selected seats are not available")
	ErrHoldNotFound       = errors.New("hold not found or already resolved")
	ErrHoldExpired        = errors.New("your hold has expired, please select your seats again")
	ErrLedgerWriteFailed  = errors.New("booking could not be recorded, please retry")
	ErrDuplicateBooking   = errors.New("booking already exists")
	ErrLayoutTooSmall     = errors.New("venue layout is too small for the configured gaps")
	ErrUnknownVenue       = errors.New("unknown venue")
	ErrUnknownVenueClass  = errors.New("unknown venue class")
	ErrSnapshotCacheMiss  = errors.New("seat map snapshot not cached")
	ErrNotificationFailed = errors.New("booking notification failed")
)

// ValidationError rejects a request before it touches a Seat Map.
type ValidationError struct {
	Field string
	Issue string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Issue)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Issue: fmt.Sprintf(format, args...)}
}

// SeatUnavailableError names the requested seats that were already claimed.
type SeatUnavailableError struct {
	SeatIDs []SeatID
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSeatUnavailable, strings.Join(SeatIDStrings(e.SeatIDs), ", "))
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}
