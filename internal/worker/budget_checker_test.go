package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/budgets"
	"budgetd/internal/core"
	"budgetd/internal/log"
	"budgetd/internal/notify"
	"budgetd/internal/storage"
)

type recorder struct {
	messages []notify.Message
}

func (r *recorder) Send(_ context.Context, m notify.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func TestCheckOnceAlertsExceededBudgets(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user := &core.User{Username: "erin", Email: "erin@example.com"}
	if err := repo.CreateUser(ctx, user, "key"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	cur := &core.Currency{Code: "BYN", Name: "Belarusian Ruble", RateToBase: decimal.NewFromInt(1)}
	if err := repo.CreateCurrency(ctx, cur); err != nil {
		t.Fatalf("CreateCurrency: %v", err)
	}
	cat := &core.Category{Name: "eating out"}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	notifier := &recorder{}
	logger := log.New(log.DefaultConfig())
	evaluator := budgets.NewEvaluator(repo, notifier, logger)

	today := core.DateOf(time.Now().UTC())

	// A budget covering today, already blown.
	if _, err := evaluator.Create(ctx, &core.Budget{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(50),
		StartDate:  today.AddDate(0, 0, -10),
		EndDate:    today.AddDate(0, 0, 10),
	}); err != nil {
		t.Fatalf("Create budget: %v", err)
	}
	txn := &core.Transaction{
		UserID:     user.ID,
		Type:       core.Expense,
		Amount:     decimal.NewFromInt(80),
		CurrencyID: cur.ID,
		CategoryID: &cat.ID,
		OccurredAt: today,
	}
	if err := repo.SaveTransaction(ctx, txn, nil); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}

	// An expired budget for the same owner must not be scanned.
	other := &core.Category{Name: "books"}
	if err := repo.CreateCategory(ctx, other); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := evaluator.Create(ctx, &core.Budget{
		UserID:     user.ID,
		CategoryID: other.ID,
		Amount:     decimal.NewFromInt(1),
		StartDate:  today.AddDate(0, 0, -30),
		EndDate:    today.AddDate(0, 0, -20),
	}); err != nil {
		t.Fatalf("Create expired budget: %v", err)
	}

	checker := NewBudgetChecker(repo, evaluator, time.Hour, logger)
	checker.CheckOnce(ctx)

	if len(notifier.messages) != 1 {
		t.Fatalf("got %d alerts, want 1", len(notifier.messages))
	}
	if got := notifier.messages[0].Recipient; got != "erin@example.com" {
		t.Errorf("recipient = %s, want erin@example.com", got)
	}

	// Running again still reports; the checker is stateless by design.
	checker.CheckOnce(ctx)
	if len(notifier.messages) != 2 {
		t.Errorf("second run: got %d alerts, want 2", len(notifier.messages))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	evaluator := budgets.NewEvaluator(repo, &recorder{}, logger)
	checker := NewBudgetChecker(repo, evaluator, time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- checker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
