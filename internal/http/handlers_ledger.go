package http

import (
	"net/http"
	"strings"

	"budgetd/internal/core"
	"budgetd/internal/ledger"
	"budgetd/internal/storage"
)

type createTransactionRequest struct {
	Type        string   `json:"type"`
	Amount      string   `json:"amount"`
	CurrencyID  int64    `json:"currency_id"`
	CategoryID  *int64   `json:"category_id"`
	AccountID   *int64   `json:"account_id"`
	OccurredAt  string   `json:"occurred_at"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	occurred, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	txn, err := s.processor.RecordTransaction(r.Context(), currentUser(r.Context()).ID, ledger.TransactionInput{
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		CurrencyID:  req.CurrencyID,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		OccurredAt:  occurred,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTransactionResponse(*txn))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	txns, err := s.processor.Transactions(r.Context(), currentUser(r.Context()).ID, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func transactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter

	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return f, core.Invalidf("invalid transaction type %q", v)
		}
		f.Type = t
	}
	categoryID, err := parseOptionalID(r, "category_id")
	if err != nil {
		return f, err
	}
	f.CategoryID = categoryID
	accountID, err := parseOptionalID(r, "account_id")
	if err != nil {
		return f, err
	}
	f.AccountID = accountID

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.Start = &d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.End = &d
	}
	return f, nil
}

type createTransferRequest struct {
	SenderID    int64  `json:"sender_id"`
	ReceiverID  int64  `json:"receiver_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	transfer, err := s.processor.RecordTransfer(r.Context(), currentUser(r.Context()).ID, ledger.TransferInput{
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTransferResponse(*transfer))
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.processor.Transfers(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransferResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}
