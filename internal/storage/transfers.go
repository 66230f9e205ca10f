package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetd/internal/core"
)

// SaveTransfer debits the sender, credits the receiver and inserts the
// transfer record in one database transaction. The sender's funds are
// re-checked inside the transaction, so the balance cannot go negative even
// when two transfers race on the same account.
func (r *Repository) SaveTransfer(ctx context.Context, t *core.Transfer) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		if _, err := applyDelta(ctx, tx, AccountDelta{
			AccountID:    t.SenderID,
			Delta:        t.Amount.Neg(),
			RequireFunds: true,
		}, now); err != nil {
			return err
		}
		if _, err := applyDelta(ctx, tx, AccountDelta{
			AccountID: t.ReceiverID,
			Delta:     t.Amount,
		}, now); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transfers (sender_account_id, receiver_account_id, amount, occurred_at, description)
			 VALUES (?, ?, ?, ?, ?)`,
			t.SenderID, t.ReceiverID, t.Amount.String(), fmtTime(t.OccurredAt), t.Description)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("transfer id: %w", err)
		}
		return nil
	})
}

// ListTransfers returns transfers touching any of the owner's accounts,
// newest first.
func (r *Repository) ListTransfers(ctx context.Context, userID int64) ([]core.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tr.id, tr.sender_account_id, tr.receiver_account_id, tr.amount, tr.occurred_at, tr.description
		 FROM transfers tr
		 WHERE tr.sender_account_id IN (SELECT id FROM accounts WHERE user_id = ?)
		    OR tr.receiver_account_id IN (SELECT id FROM accounts WHERE user_id = ?)
		 ORDER BY tr.occurred_at DESC, tr.id DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("select transfers: %w", err)
	}
	defer rows.Close()

	var out []core.Transfer
	for rows.Next() {
		var (
			t        core.Transfer
			amount   string
			occurred string
		)
		if err := rows.Scan(&t.ID, &t.SenderID, &t.ReceiverID, &amount, &occurred, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if t.Amount, err = parseDec(amount); err != nil {
			return nil, err
		}
		if t.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
