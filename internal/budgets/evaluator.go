// Package budgets enforces spending ceilings per category and period.
// A budget never blocks a transaction; the evaluator computes spend after
// the fact and raises notifications when a ceiling is crossed.
package budgets

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
	"budgetd/internal/log"
	"budgetd/internal/notify"
)

// Store is the persistence surface the evaluator needs.
type Store interface {
	CategoryByID(ctx context.Context, id int64) (*core.Category, error)
	CreateBudget(ctx context.Context, b *core.Budget) error
	BudgetByID(ctx context.Context, userID, id int64) (*core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	ExpenseTransactions(ctx context.Context, userID, categoryID int64, start, end time.Time) ([]core.Transaction, error)
	UserByID(ctx context.Context, id int64) (*core.User, error)
}

// Status is the evaluated state of one budget.
type Status struct {
	Budget    core.Budget
	Ceiling   decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Exceeded  bool
}

type Evaluator struct {
	store    Store
	notifier notify.Notifier
	logger   *log.Logger
}

func NewEvaluator(store Store, notifier notify.Notifier, logger *log.Logger) *Evaluator {
	return &Evaluator{
		store:    store,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentBudgets),
	}
}

// Create validates and persists a budget. Overlapping periods for the same
// owner and category are rejected inside the storage transaction, boundary
// days included.
func (e *Evaluator) Create(ctx context.Context, b *core.Budget) (*core.Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.store.CategoryByID(ctx, b.CategoryID); err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	b.Amount = core.RoundMoney(b.Amount)
	if err := e.store.CreateBudget(ctx, b); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, b.ID,
		log.FieldUserID, b.UserID,
		log.FieldCategoryID, b.CategoryID,
		log.FieldCeiling, b.Amount.String())
	return b, nil
}

// TotalExpenses sums the owner's expense transactions in the budget's
// category whose calendar date falls inside the period, both ends inclusive.
// Amounts are summed here rather than in SQL so money stays exact.
func (e *Evaluator) TotalExpenses(ctx context.Context, b core.Budget) (decimal.Decimal, error) {
	txns, err := e.store.ExpenseTransactions(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list expenses: %w", err)
	}
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// IsExceeded reports whether spend is strictly above the ceiling. Spending
// exactly the budgeted amount is still within budget.
func (e *Evaluator) IsExceeded(ctx context.Context, b core.Budget) (bool, error) {
	spent, err := e.TotalExpenses(ctx, b)
	if err != nil {
		return false, err
	}
	return spent.GreaterThan(b.Amount), nil
}

// Status evaluates one budget.
func (e *Evaluator) Status(ctx context.Context, b core.Budget) (Status, error) {
	spent, err := e.TotalExpenses(ctx, b)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Budget:    b,
		Ceiling:   b.Amount,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
		Exceeded:  spent.GreaterThan(b.Amount),
	}, nil
}

// Budget returns one budget owned by the user.
func (e *Evaluator) Budget(ctx context.Context, userID, id int64) (*core.Budget, error) {
	return e.store.BudgetByID(ctx, userID, id)
}

// Budgets lists the owner's budgets.
func (e *Evaluator) Budgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return e.store.ListBudgets(ctx, userID)
}

// CheckTransaction is a post-commit hook for the ledger: after an expense
// lands, every budget covering its category and date is re-evaluated and
// the owner is notified about any that tipped over. Failures are logged and
// swallowed so the write path never depends on notification delivery.
func (e *Evaluator) CheckTransaction(ctx context.Context, t core.Transaction) {
	if t.Type != core.Expense || t.CategoryID == nil {
		return
	}
	owned, err := e.store.ListBudgets(ctx, t.UserID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Budget lookup failed",
			log.FieldUserID, t.UserID, log.FieldError, err)
		return
	}
	for _, b := range owned {
		if b.CategoryID != *t.CategoryID || !b.Covers(t.OccurredAt) {
			continue
		}
		status, err := e.Status(ctx, b)
		if err != nil {
			e.logger.ErrorContext(ctx, "Budget evaluation failed",
				log.FieldBudgetID, b.ID, log.FieldError, err)
			continue
		}
		if status.Exceeded {
			e.Alert(ctx, status)
		}
	}
}

// Alert notifies the budget's owner that the ceiling was crossed.
func (e *Evaluator) Alert(ctx context.Context, status Status) {
	user, err := e.store.UserByID(ctx, status.Budget.UserID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Resolve budget owner failed",
			log.FieldBudgetID, status.Budget.ID, log.FieldError, err)
		return
	}
	category, err := e.store.CategoryByID(ctx, status.Budget.CategoryID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Resolve budget category failed",
			log.FieldBudgetID, status.Budget.ID, log.FieldError, err)
		return
	}

	msg := notify.Message{
		Recipient: user.Email,
		Subject:   fmt.Sprintf("Budget exceeded: %s", category.Name),
		Body: fmt.Sprintf("You have spent %s of your %s budget for %s (%s to %s).",
			status.Spent, status.Ceiling, category.Name,
			status.Budget.StartDate.Format("2006-01-02"),
			status.Budget.EndDate.Format("2006-01-02")),
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		e.logger.ErrorContext(ctx, "Budget alert delivery failed",
			log.FieldBudgetID, status.Budget.ID,
			log.FieldRecipient, msg.Recipient,
			log.FieldError, err)
		return
	}
	e.logger.InfoContext(ctx, "Budget alert sent",
		log.FieldBudgetID, status.Budget.ID,
		log.FieldSpent, status.Spent.String(),
		log.FieldCeiling, status.Ceiling.String())
}
