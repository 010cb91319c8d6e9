package payout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPayoutNotFound    = errors.New("payout not found")
	ErrOrdersNotFound    = errors.New("referenced orders not found")
	ErrInvalidTransition = errors.New("invalid payout status transition")
	ErrValidation        = errors.New("invalid payout input")
)

// MissingOrdersError rejects the whole aggregation when any referenced
// order number cannot be resolved for the seller.
type MissingOrdersError struct {
	Seller  string
	Missing []string
}

func (e *MissingOrdersError) Error() string {
	return fmt.Sprintf("orders not found for seller %s: %s", e.Seller, strings.Join(e.Missing, ", "))
}

func (e *MissingOrdersError) Is(target error) bool {
	return target == ErrOrdersNotFound
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid payout status transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payout input: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
