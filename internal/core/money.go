// Package core holds the domain model and the balance, conversion and
// accrual rules everything else is glue around.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive monetary amount from a string. Both dot
// (12.34) and comma (12,34) decimal separators are accepted; at most two
// fractional digits are allowed.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		return decimal.Zero, Invalidf("amount has more than two decimal places")
	}
	return d, nil
}

// ParseBalance parses an opening balance. Unlike a transaction amount a
// balance may be zero; negatives and sub-cent precision are still rejected.
func ParseBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, Invalidf("balance must not be negative")
	}
	if d.Exponent() < -2 {
		return decimal.Zero, Invalidf("balance has more than two decimal places")
	}
	return d, nil
}

// ParseRate parses a positive conversion rate. Rates keep four fractional
// digits, twice the precision of money, so small per-unit rates survive.
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrBadRate
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrBadRate
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrBadRate
	}
	if d.Exponent() < -4 {
		return decimal.Zero, Invalidf("rate has more than four decimal places")
	}
	return d, nil
}

// RoundMoney rounds to two decimal places, half away from zero. Every value
// that touches a persisted balance goes through this.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Convert expresses amount, denominated in from, in the to currency by
// normalizing through the base currency:
//
//	base = amount / from.RateToBase
//	converted = base * to.RateToBase
//
// Rates are checked before any balance is touched, so a zero rate can never
// corrupt partially applied state.
func Convert(amount decimal.Decimal, from, to Currency) (decimal.Decimal, error) {
	if from.Code == to.Code {
		return amount, nil
	}
	if !from.RateToBase.IsPositive() || !to.RateToBase.IsPositive() {
		return decimal.Zero, ErrBadRate
	}
	base := amount.Div(from.RateToBase)
	return RoundMoney(base.Mul(to.RateToBase)), nil
}

// SignedAmount returns the balance delta a transaction of the given type
// applies: positive for income, negative for expense.
func SignedAmount(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}
