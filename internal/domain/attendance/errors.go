package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Transition rejections
	ErrAlreadyCheckedIn      = errors.New("you have already checked in today")
	ErrNotCheckedIn          = errors.New("you must check in before checking out")
	ErrAlreadyCheckedOut     = errors.New("you have already checked in and out today")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time cannot be earlier than check-in time")

	// Storage constraint
	ErrDuplicateRecord = errors.New("attendance record already exists for this name and date")
)

// StoreError wraps a persistence failure with the store operation that caused it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsRejection reports whether err is an invalid state transition.
func IsRejection(err error) bool {
	return errors.Is(err, ErrAlreadyCheckedIn) ||
		errors.Is(err, ErrNotCheckedIn) ||
		errors.Is(err, ErrAlreadyCheckedOut) ||
		errors.Is(err, ErrCheckOutBeforeCheckIn)
}
