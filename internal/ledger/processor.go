// Package ledger applies transactions and transfers to account balances.
// Balance mutation is an explicit operation here, never a side effect hidden
// in a save path: the processor computes the signed, converted delta and
// hands it to storage together with the record, to be committed atomically.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetd/internal/core"
	"budgetd/internal/log"
	"budgetd/internal/storage"
)

// Store is the persistence surface the processor needs.
type Store interface {
	CurrencyByID(ctx context.Context, id int64) (*core.Currency, error)
	CategoryByID(ctx context.Context, id int64) (*core.Category, error)
	AccountByID(ctx context.Context, userID, id int64) (*core.Account, error)
	SaveTransaction(ctx context.Context, t *core.Transaction, delta *storage.AccountDelta) error
	SaveTransfer(ctx context.Context, t *core.Transfer) error
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	ListTransfers(ctx context.Context, userID int64) ([]core.Transfer, error)
}

// PostCommitHook runs after a transaction has committed. Hooks replace the
// original system's save-signal receivers; the caller injects them
// explicitly and they must not assume any transactional context.
type PostCommitHook func(ctx context.Context, t core.Transaction)

type Processor struct {
	store  Store
	hooks  []PostCommitHook
	logger *log.Logger
}

func NewProcessor(store Store, logger *log.Logger, hooks ...PostCommitHook) *Processor {
	return &Processor{
		store:  store,
		hooks:  hooks,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// TransactionInput is a request to record one ledger entry.
type TransactionInput struct {
	Type        core.TransactionType
	Amount      decimal.Decimal
	CurrencyID  int64
	CategoryID  *int64
	AccountID   *int64
	OccurredAt  time.Time
	Description string
	Tags        []string
}

// RecordTransaction validates the input, converts the amount into the
// account's currency when they differ, and persists the transaction
// together with the one-time balance effect. Every check happens before any
// mutation.
func (p *Processor) RecordTransaction(ctx context.Context, userID int64, in TransactionInput) (*core.Transaction, error) {
	if !in.Type.Valid() {
		return nil, core.Invalidf("transaction type must be income or expense")
	}
	if !in.Amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	currency, err := p.store.CurrencyByID(ctx, in.CurrencyID)
	if err != nil {
		return nil, fmt.Errorf("resolve currency: %w", err)
	}
	if in.CategoryID != nil {
		if _, err := p.store.CategoryByID(ctx, *in.CategoryID); err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
	}

	var delta *storage.AccountDelta
	if in.AccountID != nil {
		account, err := p.store.AccountByID(ctx, userID, *in.AccountID)
		if err != nil {
			return nil, fmt.Errorf("resolve account: %w", err)
		}
		accountCurrency, err := p.store.CurrencyByID(ctx, account.CurrencyID)
		if err != nil {
			return nil, fmt.Errorf("resolve account currency: %w", err)
		}
		converted, err := core.Convert(in.Amount, *currency, *accountCurrency)
		if err != nil {
			return nil, err
		}
		delta = &storage.AccountDelta{
			AccountID: account.ID,
			Delta:     core.SignedAmount(in.Type, converted),
		}
	}

	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	txn := &core.Transaction{
		UserID:      userID,
		Type:        in.Type,
		Amount:      core.RoundMoney(in.Amount),
		CurrencyID:  in.CurrencyID,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		OccurredAt:  occurred,
		Description: in.Description,
		Tags:        in.Tags,
	}
	if err := p.store.SaveTransaction(ctx, txn, delta); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	p.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldTxID, txn.ID,
		log.FieldUserID, userID,
		"type", string(txn.Type),
		log.FieldAmount, txn.Amount.String())

	for _, hook := range p.hooks {
		hook(ctx, *txn)
	}
	return txn, nil
}

// TransferInput is a request to move funds between two accounts of one owner.
type TransferInput struct {
	SenderID    int64
	ReceiverID  int64
	Amount      decimal.Decimal
	Description string
}

// RecordTransfer moves funds between the owner's accounts. Validation
// happens up front; the sender's funds are re-checked inside the storage
// transaction at commit time.
func (p *Processor) RecordTransfer(ctx context.Context, userID int64, in TransferInput) (*core.Transfer, error) {
	if !in.Amount.IsPositive() {
		return nil, core.ErrInvalidAmount
	}
	if in.SenderID == in.ReceiverID {
		return nil, core.ErrSelfTransfer
	}

	sender, err := p.store.AccountByID(ctx, userID, in.SenderID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	if _, err := p.store.AccountByID(ctx, userID, in.ReceiverID); err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	if sender.Balance.LessThan(in.Amount) {
		return nil, core.ErrInsufficientFunds
	}

	transfer := &core.Transfer{
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		Amount:      core.RoundMoney(in.Amount),
		OccurredAt:  time.Now().UTC(),
		Description: in.Description,
	}
	if err := p.store.SaveTransfer(ctx, transfer); err != nil {
		return nil, fmt.Errorf("save transfer: %w", err)
	}

	p.logger.InfoContext(ctx, "Transfer recorded",
		log.FieldTransferID, transfer.ID,
		log.FieldUserID, userID,
		log.FieldAmount, transfer.Amount.String())
	return transfer, nil
}

// Transactions lists the owner's transactions with optional filters.
func (p *Processor) Transactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	return p.store.ListTransactions(ctx, userID, f)
}

// Transfers lists transfers touching the owner's accounts.
func (p *Processor) Transfers(ctx context.Context, userID int64) ([]core.Transfer, error) {
	return p.store.ListTransfers(ctx, userID)
}
