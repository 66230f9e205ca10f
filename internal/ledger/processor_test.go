package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
	"budgetd/internal/log"
	"budgetd/internal/storage"
)

type fixture struct {
	repo *storage.Repository
	proc *Processor
	user *core.User
	eur  *core.Currency
	usd  *core.Currency
}

func newFixture(t *testing.T, hooks ...PostCommitHook) *fixture {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user := &core.User{Username: "alice", Email: "alice@example.com"}
	if err := repo.CreateUser(ctx, user, "key"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	eur := &core.Currency{Code: "EUR", Name: "Euro", RateToBase: decimal.RequireFromString("3.50")}
	if err := repo.CreateCurrency(ctx, eur); err != nil {
		t.Fatalf("CreateCurrency: %v", err)
	}
	usd := &core.Currency{Code: "USD", Name: "US Dollar", RateToBase: decimal.RequireFromString("3.25")}
	if err := repo.CreateCurrency(ctx, usd); err != nil {
		t.Fatalf("CreateCurrency: %v", err)
	}

	return &fixture{
		repo: repo,
		proc: NewProcessor(repo, log.New(log.DefaultConfig()), hooks...),
		user: user,
		eur:  eur,
		usd:  usd,
	}
}

func (f *fixture) account(t *testing.T, currencyID int64, balance string) *core.Account {
	t.Helper()
	a := &core.Account{
		UserID:     f.user.ID,
		Name:       "acct",
		Type:       core.Card,
		CurrencyID: currencyID,
		Balance:    decimal.RequireFromString(balance),
	}
	if err := f.repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return a
}

func (f *fixture) balance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	a, err := f.repo.AccountByID(context.Background(), f.user.ID, accountID)
	if err != nil {
		t.Fatalf("AccountByID: %v", err)
	}
	return a.Balance
}

func TestRecordTransactionMatchingCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.account(t, f.eur.ID, "100.00")

	t.Run("income adds exactly the amount", func(t *testing.T) {
		_, err := f.proc.RecordTransaction(ctx, f.user.ID, TransactionInput{
			Type:       core.Income,
			Amount:     decimal.RequireFromString("25.50"),
			CurrencyID: f.eur.ID,
			AccountID:  &acct.ID,
		})
		if err != nil {
			t.Fatalf("RecordTransaction: %v", err)
		}
		if got, want := f.balance(t, acct.ID), decimal.RequireFromString("125.50"); !got.Equal(want) {
			t.Errorf("balance = %s, want %s", got, want)
		}
	})

	t.Run("expense subtracts exactly the amount", func(t *testing.T) {
		_, err := f.proc.RecordTransaction(ctx, f.user.ID, TransactionInput{
			Type:       core.Expense,
			Amount:     decimal.RequireFromString("25.50"),
			CurrencyID: f.eur.ID,
			AccountID:  &acct.ID,
		})
		if err != nil {
			t.Fatalf("RecordTransaction: %v", err)
		}
		if got, want := f.balance(t, acct.ID), decimal.RequireFromString("100.00"); !got.Equal(want) {
			t.Errorf("balance = %s, want %s", got, want)
		}
	})
}

func TestRecordTransactionConverts(t *testing.T) {
	f := newFixture(t)
	acct := f.account(t, f.eur.ID, "0")

	// 100 USD -> base 100/3.25 -> EUR *3.50 = 107.69
	_, err := f.proc.RecordTransaction(context.Background(), f.user.ID, TransactionInput{
		Type:       core.Income,
		Amount:     decimal.NewFromInt(100),
		CurrencyID: f.usd.ID,
		AccountID:  &acct.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if got, want := f.balance(t, acct.ID), decimal.RequireFromString("107.69"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func TestRecordTransactionWithoutAccount(t *testing.T) {
	f := newFixture(t)

	txn, err := f.proc.RecordTransaction(context.Background(), f.user.ID, TransactionInput{
		Type:       core.Expense,
		Amount:     decimal.NewFromInt(5),
		CurrencyID: f.eur.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if txn.AccountID != nil {
		t.Error("account id set on detached transaction")
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   TransactionInput
	}{
		{
			name: "zero amount",
			in:   TransactionInput{Type: core.Income, Amount: decimal.Zero, CurrencyID: f.eur.ID},
		},
		{
			name: "negative amount",
			in:   TransactionInput{Type: core.Expense, Amount: decimal.NewFromInt(-1), CurrencyID: f.eur.ID},
		},
		{
			name: "bad type",
			in:   TransactionInput{Type: "refund", Amount: decimal.NewFromInt(1), CurrencyID: f.eur.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.proc.RecordTransaction(ctx, f.user.ID, tt.in); !core.IsValidation(err) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestRecordTransferConservesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.account(t, f.eur.ID, "80.00")
	receiver := f.account(t, f.eur.ID, "20.00")

	_, err := f.proc.RecordTransfer(ctx, f.user.ID, TransferInput{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     decimal.RequireFromString("30.00"),
	})
	if err != nil {
		t.Fatalf("RecordTransfer: %v", err)
	}

	sb := f.balance(t, sender.ID)
	rb := f.balance(t, receiver.ID)
	if !sb.Equal(decimal.RequireFromString("50.00")) || !rb.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("balances after transfer = %s / %s, want 50.00 / 50.00", sb, rb)
	}
	if !sb.Add(rb).Equal(decimal.NewFromInt(100)) {
		t.Errorf("total = %s, conservation violated", sb.Add(rb))
	}
}

func TestRecordTransferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender := f.account(t, f.eur.ID, "10.00")
	receiver := f.account(t, f.eur.ID, "0")

	tests := []struct {
		name    string
		in      TransferInput
		wantErr error
	}{
		{
			name:    "zero amount",
			in:      TransferInput{SenderID: sender.ID, ReceiverID: receiver.ID, Amount: decimal.Zero},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "self transfer",
			in:      TransferInput{SenderID: sender.ID, ReceiverID: sender.ID, Amount: decimal.NewFromInt(1)},
			wantErr: core.ErrSelfTransfer,
		},
		{
			name:    "insufficient funds",
			in:      TransferInput{SenderID: sender.ID, ReceiverID: receiver.ID, Amount: decimal.NewFromInt(11)},
			wantErr: core.ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.proc.RecordTransfer(ctx, f.user.ID, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			// Failed transfers leave balances untouched.
			if got := f.balance(t, sender.ID); !got.Equal(decimal.RequireFromString("10.00")) {
				t.Errorf("sender balance = %s after failed transfer", got)
			}
		})
	}
}

func TestPostCommitHooksRun(t *testing.T) {
	var seen []int64
	hook := func(ctx context.Context, txn core.Transaction) {
		seen = append(seen, txn.ID)
	}
	f := newFixture(t, hook)

	txn, err := f.proc.RecordTransaction(context.Background(), f.user.ID, TransactionInput{
		Type:       core.Income,
		Amount:     decimal.NewFromInt(1),
		CurrencyID: f.eur.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if len(seen) != 1 || seen[0] != txn.ID {
		t.Errorf("hook saw %v, want [%d]", seen, txn.ID)
	}
}
