package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"-1.5", "-1.5", true},
		{".5", "0.5", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"1e3", "1000", true},
		{"1e29", "1e29", true},
		{"1e-30", "1e-30", true},
		{"1e30", "", false},
		{"1e-31", "", false},
		{"1e999999999", "", false},
		{"1e-999999999", "", false},
		{"Infinity", "", false},
		{"NaN", "", false},
		{"0x10", "", false},
		{"1_000", "", false},
		{"abc", "", false},
		{"1,23", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountOutOfRange(t *testing.T) {
	for _, in := range []string{"1e999999999", "-1e999999999", "1e-999999999", "1234567890123456789012345678901"} {
		_, err := ParseAmount(in)
		if !errors.Is(err, ErrAmountOutOfRange) {
			t.Fatalf("%q: expected ErrAmountOutOfRange, got %v", in, err)
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: ErrAmountOutOfRange should wrap ErrInvalidAmount", in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"170":   "₹170.00",
		"0.1":   "₹0.10",
		"-12.5": "-₹12.50",
		"0":     "₹0.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}
