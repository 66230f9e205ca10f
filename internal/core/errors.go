package core

import (
	"errors"
	"fmt"
)

// ValidationError marks input the caller can correct. It is always recovered
// at the request boundary and surfaced as a structured client error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Invalidf builds a ValidationError from a format string.
func Invalidf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidAmount     = Invalidf("amount must be greater than zero")
	ErrSelfTransfer      = Invalidf("sender and receiver accounts must differ")
	ErrInsufficientFunds = Invalidf("insufficient funds on sender account")
	ErrBudgetOverlap     = Invalidf("an overlapping budget already exists for this category")
	ErrLoanSettled       = Invalidf("loan is already settled")
	ErrOverpayment       = Invalidf("payment exceeds remaining loan amount")
	ErrBadRate           = Invalidf("currency rate must be greater than zero")

	// ErrNotFound covers both a missing entity and one owned by another
	// user; the two are deliberately indistinguishable to the caller.
	ErrNotFound = errors.New("not found")
)
