package core

import "strings"

// Filter returns the transactions whose description or category contains
// query, ignoring case. An empty query matches everything. Order is kept.
func Filter(c Collection, query string) Collection {
	if query == "" {
		return c
	}
	needle := strings.ToLower(query)
	var out []Transaction
	for _, t := range c.items {
		if matches(t, needle) {
			out = append(out, t)
		}
	}
	return Collection{items: out}
}

func matches(t Transaction, needle string) bool {
	return strings.Contains(strings.ToLower(t.description), needle) ||
		strings.Contains(strings.ToLower(t.category), needle)
}
