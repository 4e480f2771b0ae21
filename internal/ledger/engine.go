// Package ledger owns the atomic transaction-posting protocol: one posting
// turns a user intent into consistent mutations of one or two account
// balances plus a new immutable transaction record, all-or-nothing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/google/uuid"
)

// EventPublisher announces committed postings to the outside world (the
// statement-export worker listens on the other end). Publishing happens
// strictly after commit and a failure never fails the posting.
type EventPublisher interface {
	PublishTransactionPosted(ctx context.Context, userID, transactionID string) error
}

type Engine struct {
	store     *store.Store
	publisher EventPublisher // optional

	// runTx indirects the store's transactional scope so the retry loop
	// can be exercised against injected conflicts.
	runTx func(ctx context.Context, userID string, fn func(tx *store.Tx) error) error
}

// maxPostAttempts bounds the transparent retry of the whole
// read-modify-write sequence when the store reports a write conflict.
const maxPostAttempts = 3

func New(s *store.Store, publisher EventPublisher) *Engine {
	return &Engine{store: s, publisher: publisher, runTx: s.WithinTx}
}

// PostTransaction validates the intent, applies its balance effects and
// persists the transaction record as one indivisible operation. No partial
// state is ever observable: a reader never sees a debited source without
// the credited destination and the record, or any combination thereof.
// Balances may go negative; there is no overdraft check.
func (e *Engine) PostTransaction(ctx context.Context, userID string, intent core.Intent) (core.Transaction, error) {
	if err := intent.Validate(); err != nil {
		return core.Transaction{}, err
	}
	intent = intent.Normalized()

	txn := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      intent.Amount,
		Type:        intent.Type,
		Category:    intent.Category,
		AccountID:   intent.AccountID,
		ToAccountID: intent.ToAccountID,
		Date:        intent.Date,
		Description: intent.Description,
		ServiceFee:  intent.ServiceFee,
		CreatedAt:   time.Now(),
	}

	var err error
	for attempt := 1; attempt <= maxPostAttempts; attempt++ {
		err = e.runTx(ctx, userID, func(tx *store.Tx) error {
			return post(ctx, tx, txn)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrWriteConflict) {
			return core.Transaction{}, err
		}
		slog.WarnContext(ctx, "Posting hit write conflict, retrying",
			"transaction_id", txn.ID,
			"attempt", attempt)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("post transaction after %d attempts: %w", maxPostAttempts, err)
	}

	slog.InfoContext(ctx, "Transaction posted",
		"transaction_id", txn.ID,
		"type", txn.Type,
		"category", txn.Category,
		"amount_cents", txn.Amount.Cents,
		"account_id", txn.AccountID)

	e.announce(ctx, userID, txn)
	return txn, nil
}

// post runs the posting algorithm inside one unit-of-work. It performs no
// side effects beyond the store writes, so the engine can rerun it
// transparently on conflict.
func post(ctx context.Context, tx *store.Tx, txn core.Transaction) error {
	source, err := tx.GetAccount(ctx, txn.AccountID)
	if err != nil {
		return fmt.Errorf("source account %s: %w", txn.AccountID, err)
	}

	var dest store.VersionedAccount
	if txn.Type == core.Transfer {
		dest, err = tx.GetAccount(ctx, txn.ToAccountID)
		if err != nil {
			return fmt.Errorf("destination account %s: %w", txn.ToAccountID, err)
		}
	}

	newSource := source.Account.Balance
	switch txn.Type {
	case core.Income:
		newSource = newSource.Add(txn.Amount)
	case core.Expense:
		newSource = newSource.Sub(txn.Amount)
	case core.Transfer:
		// The fee stays on the source side; the destination receives the
		// bare amount.
		newSource = newSource.Sub(txn.Amount).Sub(txn.ServiceFee)
	}

	if err := tx.UpdateBalance(ctx, txn.AccountID, newSource, source.Version); err != nil {
		return fmt.Errorf("update source balance: %w", err)
	}
	if txn.Type == core.Transfer {
		newDest := dest.Account.Balance.Add(txn.Amount)
		if err := tx.UpdateBalance(ctx, txn.ToAccountID, newDest, dest.Version); err != nil {
			return fmt.Errorf("update destination balance: %w", err)
		}
	}

	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return fmt.Errorf("insert transaction record: %w", err)
	}
	return nil
}

// announce fans out change notifications and the export event after the
// posting committed.
func (e *Engine) announce(ctx context.Context, userID string, txn core.Transaction) {
	events := []store.Event{
		{Collection: store.CollectionTransactions, Op: store.OpAdded, ID: txn.ID},
		{Collection: store.CollectionAccounts, Op: store.OpUpdated, ID: txn.AccountID},
	}
	if txn.ToAccountID != "" {
		events = append(events, store.Event{Collection: store.CollectionAccounts, Op: store.OpUpdated, ID: txn.ToAccountID})
	}
	e.store.Hub().Publish(userID, events...)

	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishTransactionPosted(ctx, userID, txn.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish posted event",
			"transaction_id", txn.ID,
			"error", err)
		// The posting is committed; export catch-up picks this one up later.
	}
}

// CreateAccount inserts a new account with its initial balance.
func (e *Engine) CreateAccount(ctx context.Context, userID string, account core.Account) (core.Account, error) {
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	return e.store.CreateAccount(ctx, userID, account)
}

// DeleteAccount removes an account. Historical transactions referencing it
// stay behind; their balance effects are not reversed.
func (e *Engine) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return e.store.DeleteAccount(ctx, userID, accountID)
}

// SaveBudget inserts a monthly budget for a category.
func (e *Engine) SaveBudget(ctx context.Context, userID string, budget core.Budget) (core.Budget, error) {
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	return e.store.CreateBudget(ctx, userID, budget)
}

// DeleteBudget removes a budget.
func (e *Engine) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	return e.store.DeleteBudget(ctx, userID, budgetID)
}

// DeleteTransaction removes a transaction record without reversing its
// balance effects. That asymmetry is intentional fidelity to the posting
// protocol, and worth flagging loudly every time it happens.
func (e *Engine) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if err := e.store.DeleteTransaction(ctx, userID, transactionID); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction deleted without balance reversal",
		"transaction_id", transactionID)
	return nil
}
