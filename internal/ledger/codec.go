// Package ledger maps the transaction collection to and from the single
// persisted slot.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"finviz/internal/core"
)

// ErrMalformedData means the slot content is not a JSON array of records.
var ErrMalformedData = errors.New("malformed ledger data")

type record struct {
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
}

// amountField is written as a string but also reads bare JSON numbers.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount is neither string nor number: %w", err)
	}
	*a = amountField(n.String())
	return nil
}

// Encode renders c as the persisted JSON array.
func Encode(c core.Collection) ([]byte, error) {
	records := make([]record, 0, c.Len())
	for _, t := range c.Items() {
		records = append(records, record{
			Amount:      amountField(t.AmountText()),
			Date:        t.Date(),
			Description: t.Description(),
			Category:    t.Category(),
		})
	}
	return json.Marshal(records)
}

// Decode parses a persisted slot. Records that cannot be restored are
// skipped and counted in dropped; a payload that is not an array yields
// ErrMalformedData.
func Decode(data []byte) (c core.Collection, dropped int, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Collection{}, 0, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	items := make([]core.Transaction, 0, len(raw))
	for _, msg := range raw {
		var r record
		if err := json.Unmarshal(msg, &r); err != nil {
			dropped++
			continue
		}
		t, err := core.RestoreTransaction(string(r.Amount), r.Date, r.Description, r.Category)
		if err != nil {
			dropped++
			continue
		}
		items = append(items, t)
	}
	return core.NewCollection(items...), dropped, nil
}
