// Package worker runs the periodic budget check. It scans budgets whose
// period covers the current day and alerts owners whose spend crossed the
// ceiling, independently of the per-transaction hook.
package worker

import (
	"context"
	"time"

	"budgetd/internal/budgets"
	"budgetd/internal/core"
	"budgetd/internal/log"
)

// BudgetStore lists the budgets active on a given day, across all users.
type BudgetStore interface {
	BudgetsActiveOn(ctx context.Context, day time.Time) ([]core.Budget, error)
}

type BudgetChecker struct {
	store     BudgetStore
	evaluator *budgets.Evaluator
	interval  time.Duration
	logger    *log.Logger
}

func NewBudgetChecker(store BudgetStore, evaluator *budgets.Evaluator, interval time.Duration, logger *log.Logger) *BudgetChecker {
	return &BudgetChecker{
		store:     store,
		evaluator: evaluator,
		interval:  interval,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Run checks immediately, then on every tick until the context ends.
func (w *BudgetChecker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Budget checker started", "interval", w.interval.String())

	w.CheckOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Budget checker stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.CheckOnce(ctx)
		}
	}
}

// CheckOnce evaluates every budget active today and alerts the owners of
// the exceeded ones. Individual failures are logged and do not stop the
// scan.
func (w *BudgetChecker) CheckOnce(ctx context.Context) {
	today := core.DateOf(time.Now().UTC())
	active, err := w.store.BudgetsActiveOn(ctx, today)
	if err != nil {
		w.logger.ErrorContext(ctx, "Budget scan failed", log.FieldError, err)
		return
	}

	exceeded := 0
	for _, b := range active {
		status, err := w.evaluator.Status(ctx, b)
		if err != nil {
			w.logger.ErrorContext(ctx, "Budget evaluation failed",
				log.FieldBudgetID, b.ID, log.FieldError, err)
			continue
		}
		if status.Exceeded {
			exceeded++
			w.evaluator.Alert(ctx, status)
		}
	}

	w.logger.InfoContext(ctx, "Budget check completed",
		"active", len(active),
		"exceeded", exceeded)
}
