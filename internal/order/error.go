package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotOnWarehouse     = errors.New("order is not on warehouse")
	ErrAlreadyOnWarehouse = errors.New("order is already on warehouse")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrValidation         = errors.New("invalid order input")
)

// InvalidTransitionError identifies the current and requested status of a
// rejected state machine move.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError carries the offending field name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order input: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
