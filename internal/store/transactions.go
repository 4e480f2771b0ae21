package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		t         core.Transaction
		toAccount sql.NullString
		dateMS    int64
		createdAt int64
	)
	err := scan(&t.ID, &t.Amount.Cents, &t.Type, &t.Category, &t.AccountID,
		&toAccount, &dateMS, &t.Description, &t.ServiceFee.Cents, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if toAccount.Valid {
		t.ToAccountID = toAccount.String
	}
	// Dates are stored as UTC epoch-ms; hand them back in UTC so the
	// month/day bucketing downstream does not depend on the server zone.
	t.Date = time.UnixMilli(dateMS).UTC()
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	return t, nil
}

const transactionColumns = `id, amount_cents, type, category, account_id,
	to_account_id, date_ms, description, service_fee_cents, created_at`

// GetTransaction returns one transaction in the user's namespace.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

	row := s.db.QueryRowContext(ctx, q, id, userID)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the user's transactions, newest occurrence date
// first. A limit of 0 means no limit.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	q := `SELECT ` + transactionColumns + `
	      FROM transactions WHERE user_id = ? ORDER BY date_ms DESC, created_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// ListTransactionsByMonth returns transactions whose occurrence date falls
// in the given year+month, newest first.
func (s *Store) ListTransactionsByMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	q := `SELECT ` + transactionColumns + `
	      FROM transactions
	      WHERE user_id = ? AND date_ms >= ? AND date_ms < ?
	      ORDER BY date_ms DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, userID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	return txns, nil
}

// DeleteTransaction removes a transaction record. The balance effects of
// the original posting are NOT reversed; this mirrors the documented
// posting protocol (the record and its effects are decoupled on delete).
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrTransactionNotFound
	}

	s.hub.Publish(userID, Event{Collection: CollectionTransactions, Op: OpRemoved, ID: id})
	return nil
}

// ExportRef identifies a transaction pending statement export.
type ExportRef struct {
	UserID        string
	TransactionID string
}

// ListUnexported returns transactions not yet written to the statement
// export, oldest first, across all users.
func (s *Store) ListUnexported(ctx context.Context, limit int) ([]ExportRef, error) {
	const q = `SELECT user_id, id FROM transactions
	           WHERE exported = 0 ORDER BY created_at ASC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported transactions: %w", err)
	}
	defer rows.Close()

	var refs []ExportRef
	for rows.Next() {
		var ref ExportRef
		if err := rows.Scan(&ref.UserID, &ref.TransactionID); err != nil {
			return nil, fmt.Errorf("scan export ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unexported transactions: %w", err)
	}
	return refs, nil
}

// MarkExported flags a transaction as written to the statement export.
// The exported flag is bookkeeping, not a field of the immutable record.
func (s *Store) MarkExported(ctx context.Context, userID, id string) error {
	const q = `UPDATE transactions SET exported = 1 WHERE id = ? AND user_id = ?`

	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("mark transaction exported: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark exported rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrTransactionNotFound
	}

	slog.DebugContext(ctx, "Transaction marked exported", "transaction_id", id)
	return nil
}
