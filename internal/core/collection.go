package core

// Collection is an ordered, append-only sequence of transactions with value
// semantics: Append and Clear return a new Collection and never touch the
// receiver, so callers can compare old and new state.
type Collection struct {
	items []Transaction
}

// NewCollection builds a collection from items, copying the slice.
func NewCollection(items ...Transaction) Collection {
	if len(items) == 0 {
		return Collection{}
	}
	out := make([]Transaction, len(items))
	copy(out, items)
	return Collection{items: out}
}

// Append returns a new collection with t added at the end.
func (c Collection) Append(t Transaction) Collection {
	out := make([]Transaction, len(c.items), len(c.items)+1)
	copy(out, c.items)
	return Collection{items: append(out, t)}
}

// Clear returns the empty collection.
func (c Collection) Clear() Collection {
	return Collection{}
}

func (c Collection) Len() int {
	return len(c.items)
}

func (c Collection) IsEmpty() bool {
	return len(c.items) == 0
}

// At returns the i-th transaction in insertion order.
func (c Collection) At(i int) Transaction {
	return c.items[i]
}

// Items returns a copy of the transactions in insertion order.
func (c Collection) Items() []Transaction {
	out := make([]Transaction, len(c.items))
	copy(out, c.items)
	return out
}
