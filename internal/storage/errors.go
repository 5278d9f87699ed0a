package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when input validation fails before any
// write is attempted.
var ErrInvalidInput = errors.New("invalid input")

// Error wraps a storage failure with the operation that produced it.
// Schema bootstrap failures, upsert failures and statement timeouts all
// surface as *Error so callers can tell storage faults apart from
// transport or parse faults.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a storage Error for operation op.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
