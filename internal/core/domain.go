package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

type (
	TransactionType string

	// User identifies one ledger namespace. Accounts, transactions and
	// budgets all hang off a user id; nothing is shared across users.
	User struct {
		ID          string
		Email       string
		DisplayName string
		CreatedAt   time.Time
	}

	// Account holds a running balance. The balance is mutated only by the
	// ledger engine's atomic posting operation.
	Account struct {
		ID        string
		Name      string
		Type      string // free-text tag: "Bank", "Cash", "Savings", ...
		Balance   Money
		CreatedAt time.Time
	}

	// Transaction is immutable once created. There is no update operation
	// anywhere in the system.
	Transaction struct {
		ID          string
		Amount      Money
		Type        TransactionType
		Category    Category
		AccountID   string
		ToAccountID string // set iff Type == Transfer
		Date        time.Time
		Description string
		ServiceFee  Money // only meaningful for transfers
		CreatedAt   time.Time
	}

	Budget struct {
		ID        string
		Category  Category
		Limit     Money
		CreatedAt time.Time
	}

	// Intent is the payload a user submits to post a transaction. It is
	// validated before any store work happens.
	Intent struct {
		Amount      Money
		Type        TransactionType
		Category    Category
		AccountID   string
		ToAccountID string
		Date        time.Time
		Description string
		ServiceFee  Money
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrWriteConflict       = errors.New("write conflict")
	ErrValidation          = errors.New("invalid input")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// Validate enforces the intent shape invariants. Anything it rejects wraps
// ErrValidation so callers can fail fast before touching the store.
func (i Intent) Validate() error {
	if i.Amount.Cents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, i.Type)
	}
	if strings.TrimSpace(i.AccountID) == "" {
		return fmt.Errorf("%w: account id is required", ErrValidation)
	}
	if i.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if len(i.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if i.ServiceFee.Cents < 0 {
		return fmt.Errorf("%w: service fee cannot be negative", ErrValidation)
	}

	switch i.Type {
	case Transfer:
		if strings.TrimSpace(i.ToAccountID) == "" {
			return fmt.Errorf("%w: transfer requires a destination account", ErrValidation)
		}
		if i.ToAccountID == i.AccountID {
			return fmt.Errorf("%w: transfer source and destination must differ", ErrValidation)
		}
	default:
		if i.ToAccountID != "" {
			return fmt.Errorf("%w: destination account only allowed for transfers", ErrValidation)
		}
		if !i.Category.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, i.Category)
		}
	}

	return nil
}

// Normalized applies the posting conventions: transfers always carry the
// Transfer category, and the service fee exists only on transfers.
func (i Intent) Normalized() Intent {
	if i.Type == Transfer {
		i.Category = CategoryTransfer
	} else {
		i.ServiceFee = Money{}
	}
	return i
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: account name is required", ErrValidation)
	}
	if len(a.Name) > 100 {
		return fmt.Errorf("%w: account name too long (max 100 characters)", ErrValidation)
	}
	if strings.TrimSpace(a.Type) == "" {
		return fmt.Errorf("%w: account type is required", ErrValidation)
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, b.Category)
	}
	if b.Limit.Cents <= 0 {
		return fmt.Errorf("%w: budget limit must be positive", ErrValidation)
	}
	return nil
}
