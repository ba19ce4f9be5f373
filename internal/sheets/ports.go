package sheets

import (
	"context"

	"finviz/internal/core"
)

// LedgerMirror receives a full copy of the ledger. Implementations replace
// whatever they held before, so repeated calls are idempotent.
type LedgerMirror interface {
	Replace(ctx context.Context, txs []core.Transaction) error
}

// Header is the first row written by every mirror.
var Header = []string{"Date", "Description", "Category", "Amount"}

// Row renders one record in Header order.
func Row(t core.Transaction) []string {
	return []string{t.Date(), t.Description(), t.Category(), t.AmountText()}
}
