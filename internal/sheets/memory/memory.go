// Package memory is a LedgerMirror that keeps the last snapshot in process.
// The worker falls back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"finviz/internal/core"
	"finviz/internal/sheets"
)

type Mirror struct {
	mu       sync.Mutex
	rows     [][]string
	replaces int
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Replace(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, append([]string(nil), sheets.Header...))
	for _, t := range txs {
		rows = append(rows, sheets.Row(t))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.replaces++
	return nil
}

// Rows returns the last snapshot, header included.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Replaces counts how many snapshots were taken.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}
