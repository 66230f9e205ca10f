package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetd/internal/core"
)

// CreateBudget inserts a budget after checking, inside the same write
// transaction, that no budget for the owner+category overlaps the new
// window. The overlap test is core.Budget.Overlaps, applied to the rows
// read under the write lock.
func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryBudgetsTx(ctx, tx,
			`SELECT id, user_id, category_id, amount, start_date, end_date
			 FROM budgets WHERE user_id = ? AND category_id = ?`,
			b.UserID, b.CategoryID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.Overlaps(*b) {
				return core.ErrBudgetOverlap
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (user_id, category_id, amount, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?)`,
			b.UserID, b.CategoryID, b.Amount.String(), fmtDate(b.StartDate), fmtDate(b.EndDate))
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("budget id: %w", err)
		}
		return nil
	})
}

func (r *Repository) BudgetByID(ctx context.Context, userID, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, start_date, end_date
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT id, user_id, category_id, amount, start_date, end_date
		 FROM budgets WHERE user_id = ? ORDER BY start_date, id`, userID)
}

// BudgetsActiveOn returns every budget, across all users, whose window
// covers the given day. The budget-check job scans these.
func (r *Repository) BudgetsActiveOn(ctx context.Context, day time.Time) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT id, user_id, category_id, amount, start_date, end_date
		 FROM budgets WHERE start_date <= ? AND end_date >= ? ORDER BY id`,
		fmtDate(day), fmtDate(day))
}

func (r *Repository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	return collectBudgets(rows)
}

func queryBudgetsTx(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]core.Budget, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	return collectBudgets(rows)
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var (
		b      core.Budget
		amount string
		start  string
		end    string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &start, &end)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan budget: %w", err)
	}
	if b.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	if b.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	return &b, nil
}
