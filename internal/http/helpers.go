package http

import (
	"net"
	"net/http"
	"strings"

	"finviz/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines.
// Whitespace is left alone; the record keeps fields as entered.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != 9 && r != 10 && r != 13) || r == 127 {
			return -1
		}
		return r
	}, s)
}

// clientIP returns the host part of RemoteAddr. With Options.TrustProxy,
// chi's RealIP has already replaced it with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type transactionJSON struct {
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func newTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		Amount:      t.AmountText(),
		Date:        t.Date(),
		Description: t.Description(),
		Category:    t.Category(),
	}
}

type transactionListJSON struct {
	Query        string            `json:"query,omitempty"`
	Count        int               `json:"count"`
	Transactions []transactionJSON `json:"transactions"`
}

func newTransactionListJSON(query string, c core.Collection) transactionListJSON {
	out := transactionListJSON{
		Query:        query,
		Count:        c.Len(),
		Transactions: make([]transactionJSON, 0, c.Len()),
	}
	for _, t := range c.Items() {
		out.Transactions = append(out.Transactions, newTransactionJSON(t))
	}
	return out
}

type monthTotalJSON struct {
	Month int    `json:"month"`
	Label string `json:"label"`
	Total string `json:"total"`
}

type categoryTotalJSON struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type summaryJSON struct {
	Count            int                 `json:"count"`
	Total            string              `json:"total"`
	TotalFormatted   string              `json:"total_formatted"`
	Monthly          []monthTotalJSON    `json:"monthly"`
	Categories       []categoryTotalJSON `json:"categories"`
	HasCategorySpend bool                `json:"has_category_spend"`
}

func newMonthlyJSON(months []core.MonthTotal) []monthTotalJSON {
	out := make([]monthTotalJSON, 0, len(months))
	for _, m := range months {
		out = append(out, monthTotalJSON{Month: m.Month, Label: m.Label(), Total: m.Total.String()})
	}
	return out
}

func newCategoriesJSON(cats []core.CategoryTotal) []categoryTotalJSON {
	out := make([]categoryTotalJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryTotalJSON{Category: c.Category.String(), Total: c.Total.String()})
	}
	return out
}

func newSummaryJSON(s core.Summary) summaryJSON {
	return summaryJSON{
		Count:            s.Count,
		Total:            s.Total.String(),
		TotalFormatted:   core.FormatAmount(s.Total),
		Monthly:          newMonthlyJSON(s.ByMonth),
		Categories:       newCategoriesJSON(s.ByCategory),
		HasCategorySpend: s.HasCategorySpend(),
	}
}
