// Package export defines the outbound port for the statement export: every
// posted transaction eventually lands as one row in an external statement.
package export

import (
	"context"

	"fintrack/internal/core"
)

// StatementRow is the flattened, human-readable form of a posted
// transaction as it appears in the exported statement.
type StatementRow struct {
	Date        string
	Type        string
	Category    string
	Description string
	Amount      float64
	Fee         float64
	AccountID   string
	ToAccountID string
}

// RowFromTransaction flattens a transaction into a statement row.
func RowFromTransaction(t core.Transaction) StatementRow {
	return StatementRow{
		Date:        t.Date.UTC().Format("2006-01-02"),
		Type:        string(t.Type),
		Category:    string(t.Category),
		Description: t.Description,
		Amount:      t.Amount.Units(),
		Fee:         t.ServiceFee.Units(),
		AccountID:   t.AccountID,
		ToAccountID: t.ToAccountID,
	}
}

// StatementWriter appends rows to the external statement. Implementations
// must be safe to call repeatedly for the same transaction; the worker
// retries on failure.
type StatementWriter interface {
	Append(ctx context.Context, row StatementRow) (rowRef string, err error)
}
