package memory

import (
	"context"
	"sync"

	"prispevky/internal/sheets"
)

// Writer keeps the last written matrix per school year. It stands in for
// the Google Sheets client in tests and local development.
type Writer struct {
	mu       sync.Mutex
	matrices map[string][]sheets.Row
	calls    int
	failWith error
}

func New() *Writer {
	return &Writer{matrices: make(map[string][]sheets.Row)}
}

// FailWith makes every subsequent WriteMatrix call return err.
// Pass nil to restore normal operation.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failWith = err
}

// WriteMatrix replaces the stored matrix for the school year.
func (w *Writer) WriteMatrix(_ context.Context, schoolYear string, rows []sheets.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	w.matrices[schoolYear] = append([]sheets.Row(nil), rows...)
	w.calls++
	return nil
}

// Matrix returns the last matrix written for the school year.
func (w *Writer) Matrix(schoolYear string) ([]sheets.Row, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.matrices[schoolYear]
	if !ok {
		return nil, false
	}
	return append([]sheets.Row(nil), rows...), true
}

// Calls reports how many writes succeeded.
func (w *Writer) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}
