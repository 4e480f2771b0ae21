// Package memory is an in-process statement writer for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/export"
)

type Writer struct {
	mu   sync.Mutex
	rows []export.StatementRow
	fail error
}

var _ export.StatementWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// Append stores the row and returns a synthetic row reference.
func (w *Writer) Append(_ context.Context, row export.StatementRow) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return "", w.fail
	}
	w.rows = append(w.rows, row)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []export.StatementRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]export.StatementRow(nil), w.rows...)
}

// FailWith makes every subsequent Append return err; nil restores normal
// operation.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}
