package http

import (
	"net/http"

	"budgetd/internal/core"
)

type createBudgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	budget, err := s.evaluator.Create(r.Context(), &core.Budget{
		UserID:     currentUser(r.Context()).ID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toBudgetResponse(*budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := s.evaluator.Budgets(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBudgetResponse(b))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	budget, err := s.evaluator.Budget(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := s.evaluator.Status(r.Context(), *budget)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toBudgetStatusResponse(status))
}
