package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// CreateBudget inserts a budget. Multiple budgets for the same category are
// permitted; each is displayed independently.
func (s *Store) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()

	const q = `INSERT INTO budgets (id, user_id, category, limit_cents, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, b.ID, userID, b.Category, b.Limit.Cents, b.CreatedAt.UnixMilli())
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", mapSQLiteErr(err))
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"category", b.Category,
		"limit_cents", b.Limit.Cents)

	s.hub.Publish(userID, Event{Collection: CollectionBudgets, Op: OpAdded, ID: b.ID})
	return b, nil
}

// ListBudgets returns all budgets of a user, newest first.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	const q = `SELECT id, category, limit_cents, created_at
	           FROM budgets WHERE user_id = ? ORDER BY created_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b         core.Budget
			createdAt int64
		)
		if err := rows.Scan(&b.ID, &b.Category, &b.Limit.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CreatedAt = time.UnixMilli(createdAt).UTC()
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// DeleteBudget removes a budget. Limits are never edited in place: changing
// a limit means delete and recreate.
func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM budgets WHERE id = ? AND user_id = ?`

	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrBudgetNotFound
	}

	s.hub.Publish(userID, Event{Collection: CollectionBudgets, Op: OpRemoved, ID: id})
	return nil
}
