package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds returned by the booking core. All of them are expected
// conditions; callers branch on them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidSelection   = errors.New("invalid seat selection")
	ErrSeatConflict       = errors.New("seat conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

var (
	ErrTripNotFound    = fmt.Errorf("trip %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
)

type SeatConflictError struct {
	SeatIDs []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already booked: %s", strings.Join(e.SeatIDs, ", "))
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

type SelectionError struct {
	Reason  string
	SeatIDs []string
}

func (e *SelectionError) Error() string {
	if len(e.SeatIDs) == 0 {
		return fmt.Sprintf("invalid seat selection: %s", e.Reason)
	}
	return fmt.Sprintf("invalid seat selection: %s: %s", e.Reason, strings.Join(e.SeatIDs, ", "))
}

func (e *SelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// StorageError wraps a persistence failure so it is never mistaken for an
// empty result.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ConflictingSeats returns the contended seat ids carried by err, if any.
func ConflictingSeats(err error) []string {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict.SeatIDs
	}
	return nil
}
