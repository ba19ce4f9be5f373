package core

import "github.com/shopspring/decimal"

// MonthsInYear is the fixed length of the monthly series.
const MonthsInYear = 12

// TotalSpent sums every amount in insertion order.
func TotalSpent(c Collection) decimal.Decimal {
	total := decimal.Zero
	for _, t := range c.items {
		total = total.Add(t.amount)
	}
	return total
}

// MonthlyExpenditure returns exactly twelve buckets, months 1 through 12.
// The year is ignored: January 2023 and January 2024 share bucket 1.
// Records without a readable month fall in no bucket.
func MonthlyExpenditure(c Collection) []MonthTotal {
	out := make([]MonthTotal, MonthsInYear)
	for i := range out {
		out[i] = MonthTotal{Month: i + 1, Total: decimal.Zero}
	}
	for _, t := range c.items {
		month, ok := t.Month()
		if !ok {
			continue
		}
		out[month-1].Total = out[month-1].Total.Add(t.amount)
	}
	return out
}

// CategoryExpenditure returns one bucket per enumeration member in declared
// order. Categories match exactly and case-sensitively; anything else is
// left out of the series but still counts in TotalSpent.
func CategoryExpenditure(c Collection) []CategoryTotal {
	cats := Categories()
	index := make(map[Category]int, len(cats))
	out := make([]CategoryTotal, len(cats))
	for i, cat := range cats {
		index[cat] = i
		out[i] = CategoryTotal{Category: cat, Total: decimal.Zero}
	}
	for _, t := range c.items {
		i, ok := index[Category(t.category)]
		if !ok {
			continue
		}
		out[i].Total = out[i].Total.Add(t.amount)
	}
	return out
}

// Summarize computes every derived read over c.
func Summarize(c Collection) Summary {
	return Summary{
		Count:      c.Len(),
		Total:      TotalSpent(c),
		ByMonth:    MonthlyExpenditure(c),
		ByCategory: CategoryExpenditure(c),
	}
}
