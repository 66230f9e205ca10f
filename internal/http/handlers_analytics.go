package http

import (
	"net/http"
	"strconv"
	"strings"

	"budgetd/internal/analytics"
	"budgetd/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.aggregator.Summarize(r.Context(), currentUser(r.Context()).ID, rng.Start, rng.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bucket := strings.TrimSpace(r.URL.Query().Get("bucket"))
	if bucket == "" {
		bucket = analytics.BucketMonth
	}

	series, err := s.aggregator.Trend(r.Context(), currentUser(r.Context()).ID, rng.Start, rng.End, bucket)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]trendPointResponse, 0, len(series))
	for _, p := range series {
		out = append(out, trendPointResponse{
			BucketStart: p.BucketStart.Format("2006-01-02"),
			Income:      p.Income.StringFixed(2),
			Expense:     p.Expense.StringFixed(2),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.writeError(w, r, core.Invalidf("invalid limit %q", v))
			return
		}
	}

	top, err := s.aggregator.TopExpenseCategories(r.Context(), currentUser(r.Context()).ID, rng.Start, rng.End, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryTotalResponse, 0, len(top))
	for _, c := range top {
		out = append(out, categoryTotalResponse{
			Category: c.Category,
			Total:    c.Total.StringFixed(2),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.aggregator.ExportCSV(r.Context(), currentUser(r.Context()).ID, rng.Start, rng.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := "transactions_" + rng.Start.Format("2006-01-02") + "_" + rng.End.Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
