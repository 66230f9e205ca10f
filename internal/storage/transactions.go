package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"budgetd/internal/core"
)

// SaveTransaction persists a transaction and, when delta is non-nil, the
// matching account balance mutation in one database transaction, so either
// the record and the new balance commit together or neither does.
func (r *Repository) SaveTransaction(ctx context.Context, t *core.Transaction, delta *AccountDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var categoryID, accountID any
		if t.CategoryID != nil {
			categoryID = *t.CategoryID
		}
		if t.AccountID != nil {
			accountID = *t.AccountID
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, type, amount, currency_id, category_id, account_id, occurred_at, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.UserID, string(t.Type), t.Amount.String(), t.CurrencyID,
			categoryID, accountID, fmtTime(t.OccurredAt), t.Description)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}

		for _, tag := range t.Tags {
			if err := linkTag(ctx, tx, t.ID, tag); err != nil {
				return err
			}
		}

		if delta != nil {
			if _, err := applyDelta(ctx, tx, *delta, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
}

func linkTag(ctx context.Context, tx *sql.Tx, txnID int64, tag string) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	var tagID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, tag).Scan(&tagID); err != nil {
		return fmt.Errorf("select tag: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`, txnID, tagID); err != nil {
		return fmt.Errorf("link tag: %w", err)
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Nil fields are ignored.
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID *int64
	AccountID  *int64
	Start      *time.Time
	End        *time.Time
}

const transactionColumns = `t.id, t.user_id, t.type, t.amount, t.currency_id, t.category_id,
	t.account_id, t.occurred_at, t.description, COALESCE(c.name, '')`

// ListTransactions returns the owner's transactions, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?`
	args := []any{userID}

	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if f.CategoryID != nil {
		query += ` AND t.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.AccountID != nil {
		query += ` AND t.account_id = ?`
		args = append(args, *f.AccountID)
	}
	if f.Start != nil {
		query += ` AND date(t.occurred_at) >= ?`
		args = append(args, fmtDate(*f.Start))
	}
	if f.End != nil {
		query += ` AND date(t.occurred_at) <= ?`
		args = append(args, fmtDate(*f.End))
	}
	query += ` ORDER BY t.occurred_at DESC, t.id DESC`

	return r.queryTransactions(ctx, query, args...)
}

// TransactionsInRange returns the owner's transactions whose calendar date
// falls in [start, end], oldest first. Used by the analytics aggregator.
func (r *Repository) TransactionsInRange(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND date(t.occurred_at) >= ? AND date(t.occurred_at) <= ?
		ORDER BY t.occurred_at, t.id`
	return r.queryTransactions(ctx, query, userID, fmtDate(start), fmtDate(end))
}

// ExpenseTransactions returns the owner's expense transactions for one
// category within [start, end]. Used by the budget evaluator.
func (r *Repository) ExpenseTransactions(ctx context.Context, userID, categoryID int64, start, end time.Time) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.category_id = ? AND t.type = 'expense'
		  AND date(t.occurred_at) >= ? AND date(t.occurred_at) <= ?
		ORDER BY t.occurred_at, t.id`
	return r.queryTransactions(ctx, query, userID, categoryID, fmtDate(start), fmtDate(end))
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t          core.Transaction
			txType     string
			amount     string
			categoryID sql.NullInt64
			accountID  sql.NullInt64
			occurred   string
		)
		err := rows.Scan(&t.ID, &t.UserID, &txType, &amount, &t.CurrencyID,
			&categoryID, &accountID, &occurred, &t.Description, &t.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(txType)
		if t.Amount, err = parseDec(amount); err != nil {
			return nil, err
		}
		if categoryID.Valid {
			v := categoryID.Int64
			t.CategoryID = &v
		}
		if accountID.Valid {
			v := accountID.Int64
			t.AccountID = &v
		}
		if t.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadTags fills in the tag names for a batch of transactions.
func (r *Repository) loadTags(ctx context.Context, txns []core.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	placeholders := make([]string, len(txns))
	args := make([]any, len(txns))
	for i := range txns {
		placeholders[i] = "?"
		args[i] = txns[i].ID
	}
	query := `SELECT tt.transaction_id, g.name
		FROM transaction_tags tt JOIN tags g ON g.id = tt.tag_id
		WHERE tt.transaction_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY g.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64][]string)
	for rows.Next() {
		var txnID int64
		var name string
		if err := rows.Scan(&txnID, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		byID[txnID] = append(byID[txnID], name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range txns {
		txns[i].Tags = byID[txns[i].ID]
	}
	return nil
}
