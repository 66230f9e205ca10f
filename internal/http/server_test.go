package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"budgetd/internal/analytics"
	"budgetd/internal/budgets"
	"budgetd/internal/core"
	"budgetd/internal/ledger"
	"budgetd/internal/loans"
	"budgetd/internal/log"
	"budgetd/internal/notify"
	"budgetd/internal/storage"
)

const testAPIKey = "test-key"

type testServer struct {
	srv  *Server
	repo *storage.Repository
	user *core.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user := &core.User{Username: "frank", Email: "frank@example.com"}
	if err := repo.CreateUser(ctx, user, testAPIKey); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	logger := log.New(log.DefaultConfig())
	evaluator := budgets.NewEvaluator(repo, notify.NewLogNotifier(logger), logger)
	processor := ledger.NewProcessor(repo, logger, evaluator.CheckTransaction)
	engine := loans.NewEngine(repo, logger)
	aggregator := analytics.NewAggregator(repo, logger)

	srv := NewServer(":0", repo, processor, engine, evaluator, aggregator, logger)
	return &testServer{srv: srv, repo: repo, user: user}
}

// do performs a request against the full middleware chain.
func (ts *testServer) do(t *testing.T, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	ts.srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (ts *testServer) seedCurrency(t *testing.T, code, rate string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/currencies",
		fmt.Sprintf(`{"code":%q,"name":%q,"rate_to_base":%q}`, code, code+" currency", rate), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create currency: %d %s", rec.Code, rec.Body.String())
	}
	return decodeBody[currencyResponse](t, rec).ID
}

func (ts *testServer) seedAccount(t *testing.T, name string, currencyID int64, balance string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/accounts",
		fmt.Sprintf(`{"name":%q,"type":"card","currency_id":%d,"balance":%q}`, name, currencyID, balance), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: %d %s", rec.Code, rec.Body.String())
	}
	return decodeBody[accountResponse](t, rec).ID
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/accounts", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec2 := httptest.NewRecorder()
	ts.srv.Server.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d, want 401", rec2.Code)
	}

	if rec := ts.do(t, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK {
		t.Errorf("healthz requires no auth, got %d", rec.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "EUR", "3.50")
	id := ts.seedAccount(t, "main card", cur, "100.00")

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", id), "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: %d %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[accountResponse](t, rec)
	if got.Balance != "100.00" || got.Type != "card" {
		t.Errorf("account = %+v", got)
	}

	// Unknown and foreign account IDs both read as 404.
	if rec := ts.do(t, http.MethodGet, "/api/v1/accounts/9999", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("missing account: status = %d, want 404", rec.Code)
	}

	// An explicit zero opening balance is valid.
	rec = ts.do(t, http.MethodPost, "/api/v1/accounts",
		fmt.Sprintf(`{"name":"empty jar","type":"cash","currency_id":%d,"balance":"0"}`, cur), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("zero balance account: %d %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[accountResponse](t, rec); got.Balance != "0.00" {
		t.Errorf("zero balance account balance = %s, want 0.00", got.Balance)
	}

	// A negative opening balance is not.
	rec = ts.do(t, http.MethodPost, "/api/v1/accounts",
		fmt.Sprintf(`{"name":"debt jar","type":"cash","currency_id":%d,"balance":"-5.00"}`, cur), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative balance: status = %d, want 422", rec.Code)
	}

	// Bad account type is a validation failure.
	rec = ts.do(t, http.MethodPost, "/api/v1/accounts",
		fmt.Sprintf(`{"name":"x","type":"vault","currency_id":%d}`, cur), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad type: status = %d, want 422", rec.Code)
	}

	// An unparseable body is a 400, not a validation failure.
	rec = ts.do(t, http.MethodPost, "/api/v1/accounts", `{"name":`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestTransactionEndpointAppliesBalance(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "EUR", "3.50")
	acct := ts.seedAccount(t, "wallet", cur, "200.00")

	rec := ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"50.25","currency_id":%d,"account_id":%d,"description":"groceries","tags":["food","weekly"]}`, cur, acct), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: %d %s", rec.Code, rec.Body.String())
	}
	txn := decodeBody[transactionResponse](t, rec)
	if txn.Amount != "50.25" || txn.Type != "expense" {
		t.Errorf("transaction = %+v", txn)
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", acct), "", true)
	if got := decodeBody[accountResponse](t, rec).Balance; got != "149.75" {
		t.Errorf("balance = %s, want 149.75", got)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/transactions?type=expense", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions: %d", rec.Code)
	}
	list := decodeBody[[]transactionResponse](t, rec)
	if len(list) != 1 {
		t.Fatalf("listed %d transactions, want 1", len(list))
	}
	if tags := list[0].Tags; len(tags) != 2 || tags[0] != "food" || tags[1] != "weekly" {
		t.Errorf("listed tags = %v, want [food weekly]", tags)
	}

	// Zero amounts never reach the ledger.
	rec = ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"0","currency_id":%d}`, cur), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero amount: status = %d, want 422", rec.Code)
	}
}

func TestTransferEndpoint(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "EUR", "3.50")
	a := ts.seedAccount(t, "a", cur, "80.00")
	b := ts.seedAccount(t, "b", cur, "20.00")

	rec := ts.do(t, http.MethodPost, "/api/v1/transfers",
		fmt.Sprintf(`{"sender_id":%d,"receiver_id":%d,"amount":"30.00"}`, a, b), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transfer: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", b), "", true)
	if got := decodeBody[accountResponse](t, rec).Balance; got != "50.00" {
		t.Errorf("receiver balance = %s, want 50.00", got)
	}

	// Overdraft and self-transfer are validation failures.
	rec = ts.do(t, http.MethodPost, "/api/v1/transfers",
		fmt.Sprintf(`{"sender_id":%d,"receiver_id":%d,"amount":"999.00"}`, a, b), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraft: status = %d, want 422", rec.Code)
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/transfers",
		fmt.Sprintf(`{"sender_id":%d,"receiver_id":%d,"amount":"1.00"}`, a, a), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("self transfer: status = %d, want 422", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "EUR", "3.50")

	rec := ts.do(t, http.MethodPost, "/api/v1/categories", `{"name":"food"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d", rec.Code)
	}
	cat := decodeBody[categoryResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%d,"amount":"100.00","start_date":"2024-03-01","end_date":"2024-03-31"}`, cat), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: %d %s", rec.Code, rec.Body.String())
	}
	budget := decodeBody[budgetResponse](t, rec)

	// Overlapping period for the same owner and category.
	rec = ts.do(t, http.MethodPost, "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%d,"amount":"50.00","start_date":"2024-03-15","end_date":"2024-04-15"}`, cat), true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overlap: status = %d, want 422", rec.Code)
	}

	ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"120.00","currency_id":%d,"category_id":%d,"occurred_at":"2024-03-10"}`, cur, cat), true)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/budgets/%d/status", budget.ID), "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget status: %d %s", rec.Code, rec.Body.String())
	}
	status := decodeBody[budgetStatusResponse](t, rec)
	if status.Spent != "120.00" || !status.Exceeded {
		t.Errorf("status = %+v", status)
	}
	if status.Remaining != "-20.00" {
		t.Errorf("remaining = %s, want -20.00", status.Remaining)
	}
}

func TestLoanEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "BYN", "1")
	acct := ts.seedAccount(t, "cash", cur, "0")

	rec := ts.do(t, http.MethodPost, "/api/v1/counterparties", `{"name":"Grete"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create counterparty: %d", rec.Code)
	}
	cp := decodeBody[counterpartyResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/v1/loans",
		fmt.Sprintf(`{"counterparty_id":%d,"direction":"received","principal":"200.00","currency_id":%d,"account_id":%d,"issued_on":"2024-01-01"}`, cp, cur, acct), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan: %d %s", rec.Code, rec.Body.String())
	}
	loan := decodeBody[loanResponse](t, rec)
	if loan.Remaining != "200.00" {
		t.Errorf("remaining = %s, want 200.00", loan.Remaining)
	}

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/payments", loan.ID),
		fmt.Sprintf(`{"amount":"80.00","account_id":%d}`, acct), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment: %d %s", rec.Code, rec.Body.String())
	}
	loan = decodeBody[loanResponse](t, rec)
	if loan.Remaining != "120.00" || loan.Settled {
		t.Errorf("after payment: %+v", loan)
	}

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/settle", loan.ID),
		fmt.Sprintf(`{"account_id":%d}`, acct), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("settle: %d %s", rec.Code, rec.Body.String())
	}
	loan = decodeBody[loanResponse](t, rec)
	if !loan.Settled || loan.Remaining != "0.00" {
		t.Errorf("after settle: %+v", loan)
	}

	// Overpaying a settled loan is a validation failure.
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/payments", loan.ID),
		`{"amount":"1.00"}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("settled payment: status = %d, want 422", rec.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cur := ts.seedCurrency(t, "EUR", "3.50")

	ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"income","amount":"300.00","currency_id":%d,"occurred_at":"2024-05-01"}`, cur), true)
	ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"expense","amount":"120.00","currency_id":%d,"occurred_at":"2024-05-02"}`, cur), true)

	rec := ts.do(t, http.MethodGet, "/api/v1/analytics/summary?start=2024-05-01&end=2024-05-31", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[summaryResponse](t, rec)
	if summary.TotalIncome != "300.00" || summary.TotalExpense != "120.00" {
		t.Errorf("summary = %+v", summary)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/analytics/trend?start=2024-05-01&end=2024-05-31&bucket=day", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("trend: %d %s", rec.Code, rec.Body.String())
	}
	if series := decodeBody[[]trendPointResponse](t, rec); len(series) != 2 {
		t.Errorf("trend buckets = %d, want 2", len(series))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/analytics/trend?bucket=decade", "", true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad bucket: status = %d, want 422", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/analytics/top-expenses?start=2024-05-01&end=2024-05-31", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("top expenses: %d %s", rec.Code, rec.Body.String())
	}
	top := decodeBody[[]categoryTotalResponse](t, rec)
	if len(top) != 1 || top[0].Category != "uncategorized" || top[0].Total != "120.00" {
		t.Errorf("top expenses = %+v", top)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/analytics/export-csv?start=2024-05-01&end=2024-05-31", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("export content type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "2024-05-02,expense,uncategorized,120.00,-") {
		t.Errorf("export body missing row:\n%s", rec.Body.String())
	}
}

func TestConvertedTransactionBalance(t *testing.T) {
	ts := newTestServer(t)
	eur := ts.seedCurrency(t, "EUR", "3.50")
	usd := ts.seedCurrency(t, "USD", "3.25")
	acct := ts.seedAccount(t, "euro card", eur, "0")

	// 100 USD into a EUR account: 100/3.25*3.50 = 107.69.
	rec := ts.do(t, http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"type":"income","amount":"100.00","currency_id":%d,"account_id":%d}`, usd, acct), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", acct), "", true)
	if got := decodeBody[accountResponse](t, rec).Balance; got != "107.69" {
		t.Errorf("balance = %s, want 107.69", got)
	}
}
