package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
)

type createLoanRequest struct {
	CounterpartyID int64  `json:"counterparty_id"`
	Direction      string `json:"direction"`
	Principal      string `json:"principal"`
	InterestRate   string `json:"interest_rate"`
	CurrencyID     int64  `json:"currency_id"`
	AccountID      *int64 `json:"account_id"`
	IssuedOn       string `json:"issued_on"`
	DueOn          string `json:"due_on"`
	Description    string `json:"description"`
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	principal, err := core.ParseAmount(req.Principal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rate := decimal.Zero
	if strings.TrimSpace(req.InterestRate) != "" {
		rate, err = decimal.NewFromString(strings.TrimSpace(req.InterestRate))
		if err != nil {
			s.writeError(w, r, core.Invalidf("invalid interest rate %q", req.InterestRate))
			return
		}
	}
	issued, err := parseDate(req.IssuedOn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var due *time.Time
	if strings.TrimSpace(req.DueOn) != "" {
		d, err := parseDate(req.DueOn)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		due = &d
	}

	loan, err := s.engine.Create(r.Context(), &core.Loan{
		UserID:         currentUser(r.Context()).ID,
		CounterpartyID: req.CounterpartyID,
		Direction:      core.LoanDirection(req.Direction),
		Principal:      principal,
		InterestRate:   rate,
		CurrencyID:     req.CurrencyID,
		AccountID:      req.AccountID,
		IssuedOn:       issued,
		DueOn:          due,
		Description:    req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toLoanResponse(*loan))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Loans(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]loanResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toLoanResponse(l))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	loan, err := s.engine.Loan(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLoanResponse(*loan))
}

type loanPaymentRequest struct {
	Amount    string `json:"amount"`
	AccountID *int64 `json:"account_id"`
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req loanPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, err := s.engine.MakePayment(r.Context(), currentUser(r.Context()).ID, id, amount, req.AccountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLoanResponse(*loan))
}

type loanSettleRequest struct {
	AccountID *int64 `json:"account_id"`
}

func (s *Server) handleLoanSettle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req loanSettleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, err := s.engine.Settle(r.Context(), currentUser(r.Context()).ID, id, req.AccountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLoanResponse(*loan))
}
