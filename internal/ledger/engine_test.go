package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, string) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	u, err := s.CreateUser(context.Background(), "user@example.com", "hash", "Test User")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return New(s, nil), s, u.ID
}

func newAccount(t *testing.T, e *Engine, userID, name string, cents int64) core.Account {
	t.Helper()
	acc, err := e.CreateAccount(context.Background(), userID, core.Account{
		Name:    name,
		Type:    "Bank",
		Balance: core.Money{Cents: cents},
	})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return acc
}

func balance(t *testing.T, s *store.Store, userID, accountID string) int64 {
	t.Helper()
	acc, err := s.GetAccount(context.Background(), userID, accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	return acc.Balance.Cents
}

func TestPostExpense(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	acc := newAccount(t, e, userID, "Checking", 100000)

	txn, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:    core.Money{Cents: 20000},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post expense: %v", err)
	}
	if txn.ID == "" || txn.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned id and timestamp: %+v", txn)
	}

	if got := balance(t, s, userID, acc.ID); got != 80000 {
		t.Fatalf("balance after expense = %d, want 80000", got)
	}

	stored, err := s.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if stored.Type != core.Expense || stored.Amount.Cents != 20000 {
		t.Fatalf("stored %+v", stored)
	}
}

func TestPostIncome(t *testing.T) {
	e, s, userID := newTestEngine(t)
	acc := newAccount(t, e, userID, "Checking", 100000)

	_, err := e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 350000},
		Type:      core.Income,
		Category:  core.CategorySalary,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post income: %v", err)
	}

	if got := balance(t, s, userID, acc.ID); got != 450000 {
		t.Fatalf("balance after income = %d, want 450000", got)
	}
}

func TestPostTransferFeeStaysOnSource(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	src := newAccount(t, e, userID, "Checking", 100000)
	dst := newAccount(t, e, userID, "Savings", 50000)

	txn, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:      core.Money{Cents: 30000},
		Type:        core.Transfer,
		AccountID:   src.ID,
		ToAccountID: dst.ID,
		ServiceFee:  core.Money{Cents: 2500},
		Date:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post transfer: %v", err)
	}

	srcBal := balance(t, s, userID, src.ID)
	dstBal := balance(t, s, userID, dst.ID)
	if srcBal != 67500 {
		t.Fatalf("source balance = %d, want 67500", srcBal)
	}
	if dstBal != 80000 {
		t.Fatalf("destination balance = %d, want 80000", dstBal)
	}

	// The fee leaves the system's total, the amount just moves.
	if total := srcBal + dstBal; total != 147500 {
		t.Fatalf("total across accounts = %d, want 147500", total)
	}

	// Transfers always carry the transfer category regardless of input.
	if txn.Category != core.CategoryTransfer {
		t.Fatalf("transfer stored with category %q", txn.Category)
	}
}

func TestPostTransferMissingDestinationLeavesNoTrace(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	src := newAccount(t, e, userID, "Checking", 100000)

	_, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:      core.Money{Cents: 30000},
		Type:        core.Transfer,
		AccountID:   src.ID,
		ToAccountID: "does-not-exist",
		Date:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// Nothing committed: source untouched, no transaction record.
	if got := balance(t, s, userID, src.ID); got != 100000 {
		t.Fatalf("source balance = %d, want 100000", got)
	}
	txns, err := s.ListTransactions(ctx, userID, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("expected no transaction records, got %d", len(txns))
	}
}

func TestPostMissingSourceAccount(t *testing.T) {
	e, _, userID := newTestEngine(t)

	_, err := e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 100},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: "does-not-exist",
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPostRejectsInvalidIntentBeforeAnyWrite(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	acc := newAccount(t, e, userID, "Checking", 100000)

	tests := []struct {
		name   string
		intent core.Intent
	}{
		{
			name: "zero amount",
			intent: core.Intent{
				Amount: core.Money{Cents: 0}, Type: core.Expense,
				Category: core.CategoryFood, AccountID: acc.ID,
				Date: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "transfer to itself",
			intent: core.Intent{
				Amount: core.Money{Cents: 100}, Type: core.Transfer,
				AccountID: acc.ID, ToAccountID: acc.ID,
				Date: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "unknown category",
			intent: core.Intent{
				Amount: core.Money{Cents: 100}, Type: core.Expense,
				Category: "Gambling", AccountID: acc.ID,
				Date: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.PostTransaction(ctx, userID, tt.intent)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if got := balance(t, s, userID, acc.ID); got != 100000 {
		t.Fatalf("balance changed by rejected intents: %d", got)
	}
}

func TestPostAllowsNegativeBalance(t *testing.T) {
	e, s, userID := newTestEngine(t)
	acc := newAccount(t, e, userID, "Checking", 1000)

	_, err := e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 5000},
		Type:      core.Expense,
		Category:  core.CategoryShopping,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post expense past zero: %v", err)
	}

	if got := balance(t, s, userID, acc.ID); got != -4000 {
		t.Fatalf("balance = %d, want -4000", got)
	}
}

func TestPostEmitsChangeEvents(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	src := newAccount(t, e, userID, "Checking", 100000)
	dst := newAccount(t, e, userID, "Savings", 0)

	ch, cancel := s.Hub().Subscribe(userID)
	defer cancel()

	txn, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:      core.Money{Cents: 100},
		Type:        core.Transfer,
		AccountID:   src.ID,
		ToAccountID: dst.ID,
		Date:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post transfer: %v", err)
	}

	want := map[store.Event]bool{
		{Collection: store.CollectionTransactions, Op: store.OpAdded, ID: txn.ID}: false,
		{Collection: store.CollectionAccounts, Op: store.OpUpdated, ID: src.ID}:   false,
		{Collection: store.CollectionAccounts, Op: store.OpUpdated, ID: dst.ID}:   false,
	}
	for range want {
		select {
		case ev := <-ch:
			if _, ok := want[ev]; !ok {
				t.Fatalf("unexpected event %+v", ev)
			}
			want[ev] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for change events")
		}
	}
	for ev, seen := range want {
		if !seen {
			t.Fatalf("missing event %+v", ev)
		}
	}
}

// recordingPublisher captures posted-event notifications.
type recordingPublisher struct {
	calls []string
	fail  bool
}

func (p *recordingPublisher) PublishTransactionPosted(ctx context.Context, userID, transactionID string) error {
	p.calls = append(p.calls, transactionID)
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestPostPublishesAfterCommit(t *testing.T) {
	e, s, userID := newTestEngine(t)
	pub := &recordingPublisher{}
	e.publisher = pub
	acc := newAccount(t, e, userID, "Checking", 100000)

	txn, err := e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 100},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(pub.calls) != 1 || pub.calls[0] != txn.ID {
		t.Fatalf("publisher calls = %v", pub.calls)
	}

	// A failed posting never reaches the publisher.
	_, err = e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 100},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: "missing",
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected posting failure")
	}
	if len(pub.calls) != 1 {
		t.Fatalf("publisher called for a failed posting: %v", pub.calls)
	}

	if got := balance(t, s, userID, acc.ID); got != 99900 {
		t.Fatalf("balance = %d, want 99900", got)
	}
}

func TestPostSucceedsWhenPublisherFails(t *testing.T) {
	e, _, userID := newTestEngine(t)
	e.publisher = &recordingPublisher{fail: true}
	acc := newAccount(t, e, userID, "Checking", 100000)

	_, err := e.PostTransaction(context.Background(), userID, core.Intent{
		Amount:    core.Money{Cents: 100},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("posting must not fail on publish error: %v", err)
	}
}

func TestDeleteTransactionKeepsBalances(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	acc := newAccount(t, e, userID, "Checking", 100000)

	txn, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:    core.Money{Cents: 20000},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if err := e.DeleteTransaction(ctx, userID, txn.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	// Deletion removes the record only; the balance effect stays.
	if got := balance(t, s, userID, acc.ID); got != 80000 {
		t.Fatalf("balance = %d, want 80000", got)
	}
	if _, err := s.GetTransaction(ctx, userID, txn.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestPostRetriesAfterWriteConflict(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	acc := newAccount(t, e, userID, "Checking", 100000)

	base := e.runTx
	attempts := 0
	e.runTx = func(ctx context.Context, uid string, fn func(tx *store.Tx) error) error {
		attempts++
		if attempts == 1 {
			return fmt.Errorf("update source balance: %w", core.ErrWriteConflict)
		}
		return base(ctx, uid, fn)
	}

	txn, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:    core.Money{Cents: 20000},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("post after one conflict: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if got := balance(t, s, userID, acc.ID); got != 80000 {
		t.Fatalf("balance = %d, want 80000", got)
	}
	if _, err := s.GetTransaction(ctx, userID, txn.ID); err != nil {
		t.Fatalf("record not persisted after retry: %v", err)
	}
}

func TestPostGivesUpAfterRepeatedConflicts(t *testing.T) {
	e, s, userID := newTestEngine(t)
	ctx := context.Background()
	acc := newAccount(t, e, userID, "Checking", 100000)

	attempts := 0
	e.runTx = func(ctx context.Context, uid string, fn func(tx *store.Tx) error) error {
		attempts++
		return fmt.Errorf("update source balance: %w", core.ErrWriteConflict)
	}

	_, err := e.PostTransaction(ctx, userID, core.Intent{
		Amount:    core.Money{Cents: 20000},
		Type:      core.Expense,
		Category:  core.CategoryFood,
		AccountID: acc.ID,
		Date:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, core.ErrWriteConflict) {
		t.Fatalf("expected ErrWriteConflict, got %v", err)
	}
	if attempts != maxPostAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, maxPostAttempts)
	}

	if got := balance(t, s, userID, acc.ID); got != 100000 {
		t.Fatalf("balance = %d, want 100000 untouched", got)
	}
	txns, err := s.ListTransactions(ctx, userID, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("expected no record after exhausted retries, got %d", len(txns))
	}
}
