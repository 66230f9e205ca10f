package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// TotalDue computes the payoff amount of a loan using simple interest over
// the whole calendar span between issue and due date:
//
//	principal + principal * rate/100 * days/365
//
// The result is rounded to two decimal places, half up. A loan without a due
// date accrues no interest.
func TotalDue(principal, annualRatePct decimal.Decimal, issued time.Time, due *time.Time) decimal.Decimal {
	if due == nil {
		return RoundMoney(principal)
	}
	days := daysBetween(issued, *due)
	if days <= 0 {
		return RoundMoney(principal)
	}
	interest := principal.
		Mul(annualRatePct).Div(hundred).
		Mul(decimal.NewFromInt(days)).Div(daysPerYear)
	return RoundMoney(principal.Add(interest))
}

func daysBetween(from, to time.Time) int64 {
	return int64(DateOf(to).Sub(DateOf(from)) / (24 * time.Hour))
}

func (l Loan) Validate() error {
	if !l.Direction.Valid() {
		return Invalidf("unknown loan direction %q", l.Direction)
	}
	if !l.Principal.IsPositive() {
		return ErrInvalidAmount
	}
	if l.InterestRate.IsNegative() {
		return Invalidf("interest rate cannot be negative")
	}
	if l.CounterpartyID == 0 {
		return Invalidf("loan counterparty is required")
	}
	if l.CurrencyID == 0 {
		return Invalidf("loan currency is required")
	}
	if l.IssuedOn.IsZero() {
		return Invalidf("loan issue date is required")
	}
	if l.DueOn != nil && l.DueOn.Before(l.IssuedOn) {
		return Invalidf("loan due date precedes issue date")
	}
	return nil
}

// ApplyPayment returns the remaining amount and settled flag after paying
// the given amount. The remaining amount is monotonically decreasing and the
// settled transition is one-way, checked here before any mutation happens.
func (l Loan) ApplyPayment(amount decimal.Decimal) (remaining decimal.Decimal, settled bool, err error) {
	if l.Settled {
		return l.Remaining, true, ErrLoanSettled
	}
	if !amount.IsPositive() {
		return l.Remaining, false, ErrInvalidAmount
	}
	if amount.GreaterThan(l.Remaining) {
		return l.Remaining, false, ErrOverpayment
	}
	remaining = RoundMoney(l.Remaining.Sub(amount))
	return remaining, remaining.IsZero(), nil
}
