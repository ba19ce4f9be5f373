package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// MonthTotal is one bucket of the monthly series.
type MonthTotal struct {
	Month int // 1-12
	Total decimal.Decimal
}

// Label returns the axis label used by charts, e.g. "Month 3".
func (m MonthTotal) Label() string {
	return "Month " + strconv.Itoa(m.Month)
}

// CategoryTotal is one bucket of the category series.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
}

// Summary bundles every derived read over a collection.
type Summary struct {
	Count      int
	Total      decimal.Decimal
	ByMonth    []MonthTotal
	ByCategory []CategoryTotal
}

// HasCategorySpend reports whether any category bucket is positive.
func (s Summary) HasCategorySpend() bool {
	for _, c := range s.ByCategory {
		if c.Total.IsPositive() {
			return true
		}
	}
	return false
}
