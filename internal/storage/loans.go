package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
)

// CreateLoan inserts a loan and, when delta is non-nil, applies the funding
// account effect atomically with it.
func (r *Repository) CreateLoan(ctx context.Context, l *core.Loan, delta *AccountDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var accountID, dueOn any
		if l.AccountID != nil {
			accountID = *l.AccountID
		}
		if l.DueOn != nil {
			dueOn = fmtDate(*l.DueOn)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO loans (user_id, counterparty_id, direction, principal, interest_rate,
			                    currency_id, account_id, issued_on, due_on, remaining, settled, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.UserID, l.CounterpartyID, string(l.Direction), l.Principal.String(),
			l.InterestRate.String(), l.CurrencyID, accountID, fmtDate(l.IssuedOn),
			dueOn, l.Remaining.String(), boolToInt(l.Settled), l.Description)
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("loan id: %w", err)
		}

		if delta != nil {
			if _, err := applyDelta(ctx, tx, *delta, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) LoanByID(ctx context.Context, userID, id int64) (*core.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, counterparty_id, direction, principal, interest_rate,
		        currency_id, account_id, issued_on, due_on, remaining, settled, description
		 FROM loans WHERE id = ? AND user_id = ?`, id, userID)
	return scanLoan(row)
}

func (r *Repository) ListLoans(ctx context.Context, userID int64) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, counterparty_id, direction, principal, interest_rate,
		        currency_id, account_id, issued_on, due_on, remaining, settled, description
		 FROM loans WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// ApplyLoanPayment stores the post-payment remaining amount and settled
// flag, applying the payment account effect in the same transaction.
func (r *Repository) ApplyLoanPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, settled bool, delta *AccountDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE loans SET remaining = ?, settled = ? WHERE id = ?`,
			remaining.String(), boolToInt(settled), loanID)
		if err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}

		if delta != nil {
			if _, err := applyDelta(ctx, tx, *delta, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanLoan(row rowScanner) (*core.Loan, error) {
	var (
		l         core.Loan
		direction string
		principal string
		rate      string
		accountID sql.NullInt64
		issued    string
		dueOn     sql.NullString
		remaining string
		settled   int
	)
	err := row.Scan(&l.ID, &l.UserID, &l.CounterpartyID, &direction, &principal, &rate,
		&l.CurrencyID, &accountID, &issued, &dueOn, &remaining, &settled, &l.Description)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	l.Direction = core.LoanDirection(direction)
	if l.Principal, err = parseDec(principal); err != nil {
		return nil, err
	}
	if l.InterestRate, err = parseDec(rate); err != nil {
		return nil, err
	}
	if accountID.Valid {
		v := accountID.Int64
		l.AccountID = &v
	}
	if l.IssuedOn, err = parseDate(issued); err != nil {
		return nil, err
	}
	if dueOn.Valid {
		due, err := parseDate(dueOn.String)
		if err != nil {
			return nil, err
		}
		l.DueOn = &due
	}
	if l.Remaining, err = parseDec(remaining); err != nil {
		return nil, err
	}
	l.Settled = settled != 0
	return &l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
