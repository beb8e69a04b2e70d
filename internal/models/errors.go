package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed candidates, formats or constraints.
	ErrInvalidInput = errors.New("invalid input")
	ErrPoolNotFound = errors.New("pool not found")
)

// ValidationError describes a single rejected field. Index is the position
// of the offending candidate in its input sequence, or -1.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: candidate %d: %s: %s", ErrInvalidInput, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
