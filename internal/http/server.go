// Package http exposes the JSON API. Every data route sits behind API key
// auth; the full middleware chain is security headers, tracing, then rate
// limiting.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"budgetd/internal/analytics"
	"budgetd/internal/budgets"
	"budgetd/internal/ledger"
	"budgetd/internal/loans"
	"budgetd/internal/log"
	"budgetd/internal/middleware/ratelimit"
	"budgetd/internal/middleware/security"
	"budgetd/internal/middleware/trace"
	"budgetd/internal/storage"
)

type Server struct {
	http.Server

	store      *storage.Repository
	processor  *ledger.Processor
	engine     *loans.Engine
	evaluator  *budgets.Evaluator
	aggregator *analytics.Aggregator

	limiter      *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store *storage.Repository, processor *ledger.Processor, engine *loans.Engine, evaluator *budgets.Evaluator, aggregator *analytics.Aggregator, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:      store,
		processor:  processor,
		engine:     engine,
		evaluator:  evaluator,
		aggregator: aggregator,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:     logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/v1/accounts", s.withAuth(s.handleCreateAccount))
	mux.HandleFunc("GET /api/v1/accounts", s.withAuth(s.handleListAccounts))
	mux.HandleFunc("GET /api/v1/accounts/{id}", s.withAuth(s.handleGetAccount))

	mux.HandleFunc("POST /api/v1/categories", s.withAuth(s.handleCreateCategory))
	mux.HandleFunc("GET /api/v1/categories", s.withAuth(s.handleListCategories))

	mux.HandleFunc("POST /api/v1/currencies", s.withAuth(s.handleCreateCurrency))
	mux.HandleFunc("GET /api/v1/currencies", s.withAuth(s.handleListCurrencies))

	mux.HandleFunc("POST /api/v1/counterparties", s.withAuth(s.handleCreateCounterparty))
	mux.HandleFunc("GET /api/v1/counterparties", s.withAuth(s.handleListCounterparties))

	mux.HandleFunc("POST /api/v1/transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.withAuth(s.handleListTransactions))

	mux.HandleFunc("POST /api/v1/transfers", s.withAuth(s.handleCreateTransfer))
	mux.HandleFunc("GET /api/v1/transfers", s.withAuth(s.handleListTransfers))

	mux.HandleFunc("POST /api/v1/budgets", s.withAuth(s.handleCreateBudget))
	mux.HandleFunc("GET /api/v1/budgets", s.withAuth(s.handleListBudgets))
	mux.HandleFunc("GET /api/v1/budgets/{id}/status", s.withAuth(s.handleBudgetStatus))

	mux.HandleFunc("POST /api/v1/loans", s.withAuth(s.handleCreateLoan))
	mux.HandleFunc("GET /api/v1/loans", s.withAuth(s.handleListLoans))
	mux.HandleFunc("GET /api/v1/loans/{id}", s.withAuth(s.handleGetLoan))
	mux.HandleFunc("POST /api/v1/loans/{id}/payments", s.withAuth(s.handleLoanPayment))
	mux.HandleFunc("POST /api/v1/loans/{id}/settle", s.withAuth(s.handleLoanSettle))

	mux.HandleFunc("GET /api/v1/analytics/summary", s.withAuth(s.handleSummary))
	mux.HandleFunc("GET /api/v1/analytics/trend", s.withAuth(s.handleTrend))
	mux.HandleFunc("GET /api/v1/analytics/top-expenses", s.withAuth(s.handleTopCategories))
	mux.HandleFunc("GET /api/v1/analytics/export-csv", s.withAuth(s.handleExportCSV))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP, logger)
	limited := s.limiter.Middleware(clientIP, nil)

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracer.Middleware(limited(mux))),
	}
	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// clientIP prefers proxy headers and falls back to the socket address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i > 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
