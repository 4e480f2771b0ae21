package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// CreateAccount inserts a new account with its initial balance and returns
// it with server-assigned id and creation timestamp.
func (s *Store) CreateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()

	const q = `INSERT INTO accounts (id, user_id, name, type, balance_cents, version, created_at)
	           VALUES (?, ?, ?, ?, ?, 1, ?)`
	_, err := s.db.ExecContext(ctx, q, a.ID, userID, a.Name, a.Type, a.Balance.Cents, a.CreatedAt.UnixMilli())
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", mapSQLiteErr(err))
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"name", a.Name,
		"type", a.Type,
		"balance_cents", a.Balance.Cents)

	s.hub.Publish(userID, Event{Collection: CollectionAccounts, Op: OpAdded, ID: a.ID})
	return a, nil
}

// GetAccount returns one account in the user's namespace.
func (s *Store) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	const q = `SELECT id, name, type, balance_cents, created_at
	           FROM accounts WHERE id = ? AND user_id = ?`

	var (
		a         core.Account
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, q, id, userID).
		Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents, &createdAt)
	if err == sql.ErrNoRows {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return a, nil
}

// ListAccounts returns all accounts of a user, oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	const q = `SELECT id, name, type, balance_cents, created_at
	           FROM accounts WHERE user_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var (
			a         core.Account
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account. Historical transactions referencing it
// are left in place; readers tolerate the dangling reference.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM accounts WHERE id = ? AND user_id = ?`

	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrAccountNotFound
	}

	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	s.hub.Publish(userID, Event{Collection: CollectionAccounts, Op: OpRemoved, ID: id})
	return nil
}
