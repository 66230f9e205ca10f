package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetd/internal/core"
)

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Balance.IsZero() {
		a.Balance = a.Balance.Round(2)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, account_type, currency_id, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, string(a.Type), a.CurrencyID, a.Balance.String(), fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	return nil
}

// AccountByID is owner-scoped: an account belonging to another user is
// reported as not found.
func (r *Repository) AccountByID(ctx context.Context, userID, id int64) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, account_type, currency_id, balance, created_at, updated_at
		 FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, account_type, currency_id, balance, created_at, updated_at
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*core.Account, error) {
	var (
		a        core.Account
		acctType string
		balance  string
		created  string
		updated  string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &acctType, &a.CurrencyID, &balance, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Type = core.AccountType(acctType)
	if a.Balance, err = parseDec(balance); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}
