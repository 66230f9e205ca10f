package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Cash    AccountType = "cash"
	Card    AccountType = "card"
	EWallet AccountType = "e_wallet"
)

const (
	LoanGiven    LoanDirection = "given"
	LoanReceived LoanDirection = "received"
)

type (
	TransactionType string
	AccountType     string
	LoanDirection   string

	User struct {
		ID       int64
		Username string
		Email    string
	}

	// Currency carries a conversion rate toward the base currency.
	// The rate is a stored factor, not a live market feed.
	Currency struct {
		ID         int64
		Code       string
		Name       string
		RateToBase decimal.Decimal
		UpdatedAt  time.Time
	}

	Account struct {
		ID         int64
		UserID     int64
		Name       string
		Type       AccountType
		CurrencyID int64
		Balance    decimal.Decimal
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Category struct {
		ID          int64
		Name        string
		Description string
	}

	// Transaction is an immutable ledger fact: its balance effect is applied
	// exactly once, at creation, and there is no update or delete path.
	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      decimal.Decimal
		CurrencyID  int64
		CategoryID  *int64
		AccountID   *int64
		OccurredAt  time.Time
		Description string
		Tags        []string

		// CategoryName is denormalized on reads for reporting.
		CategoryName string
	}

	Transfer struct {
		ID          int64
		SenderID    int64
		ReceiverID  int64
		Amount      decimal.Decimal
		OccurredAt  time.Time
		Description string
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     decimal.Decimal
		StartDate  time.Time
		EndDate    time.Time
	}

	Counterparty struct {
		ID          int64
		UserID      int64
		Name        string
		ContactInfo string
	}

	// Loan tracks an interest-bearing amount toward zero. The only state
	// transition is active -> settled, when Remaining reaches exactly zero.
	Loan struct {
		ID             int64
		UserID         int64
		CounterpartyID int64
		Direction      LoanDirection
		Principal      decimal.Decimal
		InterestRate   decimal.Decimal // annual, percent
		CurrencyID     int64
		AccountID      *int64
		IssuedOn       time.Time
		DueOn          *time.Time
		Remaining      decimal.Decimal
		Settled        bool
		Description    string
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t AccountType) Valid() bool {
	return t == Cash || t == Card || t == EWallet
}

func (d LoanDirection) Valid() bool {
	return d == LoanGiven || d == LoanReceived
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Invalidf("account name is required")
	}
	if !a.Type.Valid() {
		return Invalidf("unknown account type %q", a.Type)
	}
	if a.CurrencyID == 0 {
		return Invalidf("account currency is required")
	}
	return nil
}

func (c Currency) Validate() error {
	code := strings.TrimSpace(c.Code)
	if len(code) != 3 {
		return Invalidf("currency code must be 3 letters")
	}
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("currency name is required")
	}
	if !c.RateToBase.IsPositive() {
		return ErrBadRate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("category name is required")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return Invalidf("budget category is required")
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return Invalidf("budget period is required")
	}
	if b.EndDate.Before(b.StartDate) {
		return Invalidf("budget end date precedes start date")
	}
	return nil
}

// Overlaps reports whether two budget windows intersect. Windows are
// inclusive on both ends, so back-to-back windows that share no day do not
// overlap.
func (b Budget) Overlaps(other Budget) bool {
	return !other.StartDate.After(b.EndDate) && !other.EndDate.Before(b.StartDate)
}

// Covers reports whether the budget window contains the given calendar date.
func (b Budget) Covers(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(b.StartDate)) && !d.After(DateOf(b.EndDate))
}

func (c Counterparty) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("counterparty name is required")
	}
	return nil
}

// DateOf truncates a timestamp to its calendar date in UTC. All range
// filters in the system compare date components, never full timestamps.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
