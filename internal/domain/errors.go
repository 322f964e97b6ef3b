package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTitleRequired    = errors.New("title required")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownPattern   = errors.New("unknown recurring pattern")
	ErrUnknownScope     = errors.New("unknown edit scope")
	ErrEventNotFound    = errors.New("event not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// ValidationError reports a rejected field before any mutation is planned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a row store failure. Step is the index of the failed
// mutation inside its plan, or -1 for reads.
type StoreError struct {
	Op    Op
	Table Table
	ID    string
	Step  int
	Err   error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s/%s (step %d): %v", e.Op, e.Table, e.ID, e.Step, e.Err)
	}
	return fmt.Sprintf("store %s %s (step %d): %v", e.Op, e.Table, e.Step, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was raised by input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
