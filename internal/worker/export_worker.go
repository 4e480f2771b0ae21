// Package worker runs the statement export: it listens for posted
// transactions and appends each one as a row to the external statement,
// with a periodic catch-up sweep for anything a lost message left behind.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/store"
)

type ExportWorker struct {
	store     *store.Store
	writer    export.StatementWriter
	batchSize int
}

func NewExportWorker(s *store.Store, writer export.StatementWriter, batchSize int) *ExportWorker {
	return &ExportWorker{store: s, writer: writer, batchSize: batchSize}
}

// HandleMessage processes one posted-transaction notification. A
// transaction deleted between posting and export is skipped, not retried.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionPostedMessage) error {
	return w.exportOne(ctx, msg.UserID, msg.TransactionID)
}

func (w *ExportWorker) exportOne(ctx context.Context, userID, transactionID string) error {
	txn, err := w.store.GetTransaction(ctx, userID, transactionID)
	if errors.Is(err, core.ErrTransactionNotFound) {
		slog.WarnContext(ctx, "Transaction gone before export, skipping",
			"transaction_id", transactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction for export: %w", err)
	}

	ref, err := w.writer.Append(ctx, export.RowFromTransaction(txn))
	if err != nil {
		return fmt.Errorf("append statement row: %w", err)
	}

	if err := w.store.MarkExported(ctx, userID, transactionID); err != nil {
		// The row landed; a duplicate on the next sweep beats a lost export.
		slog.ErrorContext(ctx, "Failed to mark transaction exported",
			"transaction_id", transactionID,
			"error", err)
	}

	slog.InfoContext(ctx, "Exported transaction to statement",
		"transaction_id", transactionID,
		"statement_ref", ref)
	return nil
}

// ProcessPending exports transactions the message path missed. This is the
// backup mechanism for lost AMQP messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	refs, err := w.store.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(refs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(refs))

	for _, ref := range refs {
		if err := w.exportOne(ctx, ref.UserID, ref.TransactionID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"transaction_id", ref.TransactionID,
				"error", err)
		}
	}
	return nil
}

// StartupCheck drains the export backlog accumulated while the worker was
// down, in larger batches than the periodic sweep.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	refs, err := w.store.ListUnexported(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports for startup check: %w", err)
	}
	if len(refs) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(refs))

	exported := 0
	failed := 0
	for _, ref := range refs {
		if err := w.exportOne(ctx, ref.UserID, ref.TransactionID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"transaction_id", ref.TransactionID,
				"error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(refs),
		"exported", exported,
		"errors", failed)
	return nil
}
