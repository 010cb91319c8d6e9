package debt

import (
	"errors"
	"fmt"
)

var (
	ErrDebtNotFound  = errors.New("debt not found")
	ErrDebtExists    = errors.New("debt already exists for person")
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrOverpayment   = errors.New("payment exceeds remaining debt")
	ErrValidation    = errors.New("invalid debt input")
)

// OverpaymentError reports the remaining balance a rejected payment
// would have driven negative.
type OverpaymentError struct {
	PersonName string
	Remaining  int64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment exceeds remaining debt of %s: %d left", e.PersonName, e.Remaining)
}

func (e *OverpaymentError) Is(target error) bool {
	return target == ErrOverpayment
}
