// Package core provides the transaction model and the pure derivations
// computed over a collection of transactions.
//
// This file contains amount parsing and formatting. Amounts are signed
// decimals in a single implicit currency and are never converted to floats.
package core

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user-entered text into a decimal amount.
//
// It accepts standard decimal notation with an optional sign and optional
// exponent. Surrounding whitespace is ignored for parsing only. Values with
// more than maxAmountDigits integer or fractional digits are rejected with
// ErrAmountOutOfRange.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
//	ParseAmount(".5")    -> 0.5, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("1e999") -> 0, ErrAmountOutOfRange
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !withinDigitLimit(d) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return d, nil
}

// maxAmountDigits bounds both sides of the decimal point.
const maxAmountDigits = 30

// withinDigitLimit reports whether d has at most maxAmountDigits digits
// before and after the decimal point.
func withinDigitLimit(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxAmountDigits {
		return false
	}
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	return digits+exp <= maxAmountDigits
}

// FormatAmount renders an amount for display with two fractional digits,
// e.g. "₹170.00". Negative values keep their sign in front of the symbol.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Neg().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}
