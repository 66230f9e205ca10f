package http

import (
	"time"

	"budgetd/internal/analytics"
	"budgetd/internal/budgets"
	"budgetd/internal/core"
)

// Responses carry money as fixed two-decimal strings and dates as
// YYYY-MM-DD; timestamps are RFC 3339.

type accountResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	CurrencyID int64  `json:"currency_id"`
	Balance    string `json:"balance"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:         a.ID,
		Name:       a.Name,
		Type:       string(a.Type),
		CurrencyID: a.CurrencyID,
		Balance:    a.Balance.StringFixed(2),
	}
}

type currencyResponse struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	RateToBase string `json:"rate_to_base"`
}

func toCurrencyResponse(c core.Currency) currencyResponse {
	return currencyResponse{
		ID:         c.ID,
		Code:       c.Code,
		Name:       c.Name,
		RateToBase: c.RateToBase.String(),
	}
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type counterpartyResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info,omitempty"`
}

type transactionResponse struct {
	ID          int64    `json:"id"`
	Type        string   `json:"type"`
	Amount      string   `json:"amount"`
	CurrencyID  int64    `json:"currency_id"`
	CategoryID  *int64   `json:"category_id,omitempty"`
	Category    string   `json:"category,omitempty"`
	AccountID   *int64   `json:"account_id,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		CurrencyID:  t.CurrencyID,
		CategoryID:  t.CategoryID,
		Category:    t.CategoryName,
		AccountID:   t.AccountID,
		OccurredAt:  t.OccurredAt.UTC().Format(time.RFC3339),
		Description: t.Description,
		Tags:        t.Tags,
	}
}

type transferResponse struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	ReceiverID  int64  `json:"receiver_id"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurred_at"`
	Description string `json:"description,omitempty"`
}

func toTransferResponse(t core.Transfer) transferResponse {
	return transferResponse{
		ID:          t.ID,
		SenderID:    t.SenderID,
		ReceiverID:  t.ReceiverID,
		Amount:      t.Amount.StringFixed(2),
		OccurredAt:  t.OccurredAt.UTC().Format(time.RFC3339),
		Description: t.Description,
	}
}

type budgetResponse struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount.StringFixed(2),
		StartDate:  b.StartDate.Format("2006-01-02"),
		EndDate:    b.EndDate.Format("2006-01-02"),
	}
}

type budgetStatusResponse struct {
	Budget    budgetResponse `json:"budget"`
	Ceiling   string         `json:"ceiling"`
	Spent     string         `json:"spent"`
	Remaining string         `json:"remaining"`
	Exceeded  bool           `json:"exceeded"`
}

func toBudgetStatusResponse(s budgets.Status) budgetStatusResponse {
	return budgetStatusResponse{
		Budget:    toBudgetResponse(s.Budget),
		Ceiling:   s.Ceiling.StringFixed(2),
		Spent:     s.Spent.StringFixed(2),
		Remaining: s.Remaining.StringFixed(2),
		Exceeded:  s.Exceeded,
	}
}

type loanResponse struct {
	ID             int64  `json:"id"`
	CounterpartyID int64  `json:"counterparty_id"`
	Direction      string `json:"direction"`
	Principal      string `json:"principal"`
	InterestRate   string `json:"interest_rate"`
	CurrencyID     int64  `json:"currency_id"`
	AccountID      *int64 `json:"account_id,omitempty"`
	IssuedOn       string `json:"issued_on"`
	DueOn          string `json:"due_on,omitempty"`
	Remaining      string `json:"remaining"`
	Settled        bool   `json:"settled"`
	Description    string `json:"description,omitempty"`
}

func toLoanResponse(l core.Loan) loanResponse {
	resp := loanResponse{
		ID:             l.ID,
		CounterpartyID: l.CounterpartyID,
		Direction:      string(l.Direction),
		Principal:      l.Principal.StringFixed(2),
		InterestRate:   l.InterestRate.String(),
		CurrencyID:     l.CurrencyID,
		AccountID:      l.AccountID,
		IssuedOn:       l.IssuedOn.Format("2006-01-02"),
		Remaining:      l.Remaining.StringFixed(2),
		Settled:        l.Settled,
		Description:    l.Description,
	}
	if l.DueOn != nil {
		resp.DueOn = l.DueOn.Format("2006-01-02")
	}
	return resp
}

type categoryLineResponse struct {
	Category string `json:"category"`
	Income   string `json:"income"`
	Expense  string `json:"expense"`
}

type summaryResponse struct {
	TotalIncome  string                 `json:"total_income"`
	TotalExpense string                 `json:"total_expense"`
	Categories   []categoryLineResponse `json:"categories"`
}

func toSummaryResponse(s *analytics.Summary) summaryResponse {
	resp := summaryResponse{
		TotalIncome:  s.TotalIncome.StringFixed(2),
		TotalExpense: s.TotalExpense.StringFixed(2),
		Categories:   make([]categoryLineResponse, 0, len(s.Categories)),
	}
	for _, line := range s.Categories {
		resp.Categories = append(resp.Categories, categoryLineResponse{
			Category: line.Category,
			Income:   line.Income.StringFixed(2),
			Expense:  line.Expense.StringFixed(2),
		})
	}
	return resp
}

type trendPointResponse struct {
	BucketStart string `json:"bucket_start"`
	Income      string `json:"income"`
	Expense     string `json:"expense"`
}

type categoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}
