package store

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// Tx is the atomic unit-of-work the ledger engine posts through. Reads
// observe a consistent snapshot; balance writes carry an optimistic version
// check, so a conflicting concurrent writer surfaces as ErrWriteConflict
// and the whole sequence can be retried from the top. Account balances are
// mutated nowhere else.
type Tx struct {
	tx     *sql.Tx
	userID string
}

// WithinTx runs fn inside one SQL transaction scoped to a user. If fn
// returns an error the transaction is rolled back and nothing is visible to
// readers; otherwise all writes commit together. fn must not perform side
// effects other than Tx calls: it may run more than once under conflict
// retry.
func (s *Store) WithinTx(ctx context.Context, userID string, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapSQLiteErr(err))
	}

	if err := fn(&Tx{tx: sqlTx, userID: userID}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapSQLiteErr(err))
	}
	return nil
}

// VersionedAccount pairs an account snapshot with the version its balance
// update must match.
type VersionedAccount struct {
	Account core.Account
	Version int64
}

// GetAccount reads an account and its current version inside the
// unit-of-work.
func (t *Tx) GetAccount(ctx context.Context, id string) (VersionedAccount, error) {
	const q = `SELECT id, name, type, balance_cents, version
	           FROM accounts WHERE id = ? AND user_id = ?`

	var va VersionedAccount
	err := t.tx.QueryRowContext(ctx, q, id, t.userID).
		Scan(&va.Account.ID, &va.Account.Name, &va.Account.Type, &va.Account.Balance.Cents, &va.Version)
	if err == sql.ErrNoRows {
		return VersionedAccount{}, core.ErrAccountNotFound
	}
	if err != nil {
		return VersionedAccount{}, fmt.Errorf("read account in tx: %w", mapSQLiteErr(err))
	}
	return va, nil
}

// UpdateBalance writes a new balance if and only if the account version
// still matches the one observed at read time. A missed match means a
// concurrent writer got there first: the caller gets ErrWriteConflict and
// retries the whole unit-of-work.
func (t *Tx) UpdateBalance(ctx context.Context, id string, balance core.Money, version int64) error {
	const q = `UPDATE accounts SET balance_cents = ?, version = version + 1
	           WHERE id = ? AND user_id = ? AND version = ?`

	res, err := t.tx.ExecContext(ctx, q, balance.Cents, id, t.userID, version)
	if err != nil {
		return fmt.Errorf("update balance: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrWriteConflict
	}
	return nil
}

// InsertTransaction writes the immutable transaction record. There is no
// corresponding update statement anywhere in the store.
func (t *Tx) InsertTransaction(ctx context.Context, txn core.Transaction) error {
	const q = `INSERT INTO transactions
	           (id, user_id, amount_cents, type, category, account_id, to_account_id,
	            date_ms, description, service_fee_cents, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var toAccount any
	if txn.ToAccountID != "" {
		toAccount = txn.ToAccountID
	}

	_, err := t.tx.ExecContext(ctx, q,
		txn.ID, t.userID, txn.Amount.Cents, txn.Type, txn.Category, txn.AccountID,
		toAccount, txn.Date.UnixMilli(), txn.Description, txn.ServiceFee.Cents,
		txn.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", mapSQLiteErr(err))
	}
	return nil
}
