// Package loans tracks money lent and borrowed. A loan accrues simple
// interest up front: the payoff amount is fixed at creation time and only
// ever decreases as payments come in.
package loans

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
	"budgetd/internal/log"
	"budgetd/internal/storage"
)

// Store is the persistence surface the engine needs.
type Store interface {
	CounterpartyByID(ctx context.Context, userID, id int64) (*core.Counterparty, error)
	CurrencyByID(ctx context.Context, id int64) (*core.Currency, error)
	AccountByID(ctx context.Context, userID, id int64) (*core.Account, error)
	CreateLoan(ctx context.Context, l *core.Loan, delta *storage.AccountDelta) error
	LoanByID(ctx context.Context, userID, id int64) (*core.Loan, error)
	ListLoans(ctx context.Context, userID int64) ([]core.Loan, error)
	ApplyLoanPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, settled bool, delta *storage.AccountDelta) error
}

type Engine struct {
	store  Store
	logger *log.Logger
}

func NewEngine(store Store, logger *log.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.WithComponent(log.ComponentLoans),
	}
}

// Create validates the loan, fixes the payoff amount at
// principal + simple interest for the issue-to-due span, and applies the
// funding effect to the linked account: a received loan credits the account
// with the principal, a given one debits it.
func (e *Engine) Create(ctx context.Context, l *core.Loan) (*core.Loan, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.store.CounterpartyByID(ctx, l.UserID, l.CounterpartyID); err != nil {
		return nil, fmt.Errorf("resolve counterparty: %w", err)
	}
	currency, err := e.store.CurrencyByID(ctx, l.CurrencyID)
	if err != nil {
		return nil, fmt.Errorf("resolve currency: %w", err)
	}

	var delta *storage.AccountDelta
	if l.AccountID != nil {
		d, err := e.accountDelta(ctx, l.UserID, *l.AccountID, *currency, l.Principal, l.Direction == core.LoanReceived)
		if err != nil {
			return nil, err
		}
		delta = d
	}

	l.Principal = core.RoundMoney(l.Principal)
	l.Remaining = core.TotalDue(l.Principal, l.InterestRate, l.IssuedOn, l.DueOn)
	l.Settled = false
	if err := e.store.CreateLoan(ctx, l, delta); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	e.logger.InfoContext(ctx, "Loan created",
		log.FieldLoanID, l.ID,
		log.FieldUserID, l.UserID,
		"direction", string(l.Direction),
		log.FieldAmount, l.Principal.String(),
		log.FieldRemaining, l.Remaining.String())
	return l, nil
}

// MakePayment reduces the loan's remaining amount and, when an account is
// given, moves the money the matching way: paying back a received loan
// debits the account, collecting on a given loan credits it. The settled
// flag flips exactly when remaining reaches zero.
func (e *Engine) MakePayment(ctx context.Context, userID, loanID int64, amount decimal.Decimal, accountID *int64) (*core.Loan, error) {
	loan, err := e.store.LoanByID(ctx, userID, loanID)
	if err != nil {
		return nil, fmt.Errorf("resolve loan: %w", err)
	}

	remaining, settled, err := loan.ApplyPayment(amount)
	if err != nil {
		return nil, err
	}

	var delta *storage.AccountDelta
	if accountID != nil {
		currency, err := e.store.CurrencyByID(ctx, loan.CurrencyID)
		if err != nil {
			return nil, fmt.Errorf("resolve currency: %w", err)
		}
		d, err := e.accountDelta(ctx, userID, *accountID, *currency, amount, loan.Direction == core.LoanGiven)
		if err != nil {
			return nil, err
		}
		delta = d
	}

	if err := e.store.ApplyLoanPayment(ctx, loanID, remaining, settled, delta); err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}
	loan.Remaining = remaining
	loan.Settled = settled

	e.logger.InfoContext(ctx, "Loan payment applied",
		log.FieldLoanID, loan.ID,
		log.FieldUserID, userID,
		log.FieldAmount, amount.String(),
		log.FieldRemaining, remaining.String(),
		"settled", settled)
	return loan, nil
}

// Settle pays off the full remaining amount in one payment.
func (e *Engine) Settle(ctx context.Context, userID, loanID int64, accountID *int64) (*core.Loan, error) {
	loan, err := e.store.LoanByID(ctx, userID, loanID)
	if err != nil {
		return nil, fmt.Errorf("resolve loan: %w", err)
	}
	if loan.Settled {
		return nil, core.ErrLoanSettled
	}
	return e.MakePayment(ctx, userID, loanID, loan.Remaining, accountID)
}

// Loan returns one loan owned by the user.
func (e *Engine) Loan(ctx context.Context, userID, id int64) (*core.Loan, error) {
	return e.store.LoanByID(ctx, userID, id)
}

// Loans lists the owner's loans, open ones first.
func (e *Engine) Loans(ctx context.Context, userID int64) ([]core.Loan, error) {
	return e.store.ListLoans(ctx, userID)
}

// accountDelta resolves the account, converts the amount from the loan's
// currency into the account's, and picks the sign. Debits require funds.
func (e *Engine) accountDelta(ctx context.Context, userID, accountID int64, from core.Currency, amount decimal.Decimal, credit bool) (*storage.AccountDelta, error) {
	account, err := e.store.AccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	accountCurrency, err := e.store.CurrencyByID(ctx, account.CurrencyID)
	if err != nil {
		return nil, fmt.Errorf("resolve account currency: %w", err)
	}
	converted, err := core.Convert(amount, from, *accountCurrency)
	if err != nil {
		return nil, err
	}
	delta := &storage.AccountDelta{AccountID: account.ID, Delta: converted}
	if !credit {
		delta.Delta = converted.Neg()
		delta.RequireFunds = true
	}
	return delta, nil
}
