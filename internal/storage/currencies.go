package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
)

func (r *Repository) CreateCurrency(ctx context.Context, c *core.Currency) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (code, name, rate_to_base, updated_at) VALUES (?, ?, ?, ?)`,
		c.Code, c.Name, c.RateToBase.String(), fmtTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert currency: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("currency id: %w", err)
	}
	return nil
}

func (r *Repository) CurrencyByID(ctx context.Context, id int64) (*core.Currency, error) {
	return r.currencyBy(ctx, `id = ?`, id)
}

func (r *Repository) CurrencyByCode(ctx context.Context, code string) (*core.Currency, error) {
	return r.currencyBy(ctx, `code = ?`, code)
}

func (r *Repository) currencyBy(ctx context.Context, where string, arg any) (*core.Currency, error) {
	var (
		c       core.Currency
		rate    string
		updated string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, rate_to_base, updated_at FROM currencies WHERE `+where, arg).
		Scan(&c.ID, &c.Code, &c.Name, &rate, &updated)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select currency: %w", err)
	}
	if c.RateToBase, err = parseDec(rate); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name, rate_to_base, updated_at FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("select currencies: %w", err)
	}
	defer rows.Close()

	var out []core.Currency
	for rows.Next() {
		var (
			c       core.Currency
			rate    string
			updated string
		)
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &rate, &updated); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		if c.RateToBase, err = parseDec(rate); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCurrencyRate overwrites the stored conversion rate for a code.
func (r *Repository) UpdateCurrencyRate(ctx context.Context, code string, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return core.ErrBadRate
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE currencies SET rate_to_base = ?, updated_at = ? WHERE code = ?`,
		rate.String(), fmtTime(time.Now()), code)
	if err != nil {
		return fmt.Errorf("update currency rate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
