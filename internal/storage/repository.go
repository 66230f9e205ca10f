// Package storage persists the domain model in SQLite. Every balance
// mutation runs inside a single write transaction; SQLite's database-level
// write lock serializes concurrent mutations of the same account, so a
// transfer and a transaction racing on one account cannot lose an update.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and runs
// pending migrations. The _txlock=immediate option makes write transactions
// take the write lock at BEGIN, not at first write, which keeps the
// validate-then-mutate sequences in this package serializable.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_txlock=immediate&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AccountDelta describes a single balance mutation to apply atomically with
// a record insert. When RequireFunds is set, a delta that would push the
// balance below zero aborts the whole transaction with ErrInsufficientFunds.
type AccountDelta struct {
	AccountID    int64
	Delta        decimal.Decimal
	RequireFunds bool
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyDelta reads, adjusts and writes back an account balance inside tx,
// returning the new balance.
func applyDelta(ctx context.Context, tx *sql.Tx, d AccountDelta, now time.Time) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, d.AccountID).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, core.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	balance, err := parseDec(raw)
	if err != nil {
		return decimal.Zero, err
	}

	balance = core.RoundMoney(balance.Add(d.Delta))
	if d.RequireFunds && balance.IsNegative() {
		return decimal.Zero, core.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), fmtTime(now), d.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}
	return balance, nil
}

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func fmtDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
