package http

import (
	"net/http"

	"budgetd/internal/core"
)

type createAccountRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	CurrencyID int64  `json:"currency_id"`
	Balance    string `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	account := &core.Account{
		UserID:     currentUser(r.Context()).ID,
		Name:       req.Name,
		Type:       core.AccountType(req.Type),
		CurrencyID: req.CurrencyID,
	}
	if req.Balance != "" {
		balance, err := core.ParseBalance(req.Balance)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		account.Balance = balance
	}
	if err := account.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.store.CurrencyByID(r.Context(), account.CurrencyID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toAccountResponse(*account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	account, err := s.store.AccountByID(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAccountResponse(*account))
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	category := &core.Category{Name: req.Name, Description: req.Description}
	if err := category.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, categoryResponse{
		ID: category.ID, Name: category.Name, Description: category.Description,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createCurrencyRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	RateToBase string `json:"rate_to_base"`
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req createCurrencyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rate, err := core.ParseRate(req.RateToBase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	currency := &core.Currency{Code: req.Code, Name: req.Name, RateToBase: rate}
	if err := currency.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateCurrency(r.Context(), currency); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toCurrencyResponse(*currency))
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.store.ListCurrencies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]currencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, toCurrencyResponse(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createCounterpartyRequest struct {
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

func (s *Server) handleCreateCounterparty(w http.ResponseWriter, r *http.Request) {
	var req createCounterpartyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cp := &core.Counterparty{
		UserID:      currentUser(r.Context()).ID,
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
	}
	if err := cp.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateCounterparty(r.Context(), cp); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, counterpartyResponse{
		ID: cp.ID, Name: cp.Name, ContactInfo: cp.ContactInfo,
	})
}

func (s *Server) handleListCounterparties(w http.ResponseWriter, r *http.Request) {
	cps, err := s.store.ListCounterparties(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]counterpartyResponse, 0, len(cps))
	for _, cp := range cps {
		out = append(out, counterpartyResponse{ID: cp.ID, Name: cp.Name, ContactInfo: cp.ContactInfo})
	}
	s.writeJSON(w, http.StatusOK, out)
}
