package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used for transaction dates.
const DateLayout = "2006-01-02"

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Health        Category = "Health"
	Entertainment Category = "Entertainment"
	Others        Category = "Others"
)

type (
	Category string

	// Transaction is one user-entered spending event. Values are immutable
	// once created; every field is unexported behind accessors.
	Transaction struct {
		amount      decimal.Decimal
		amountText  string
		date        string
		description string
		category    string
	}
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")

	// ErrAmountOutOfRange is an ErrInvalidAmount for values with too many digits.
	ErrAmountOutOfRange = fmt.Errorf("%w: too many digits", ErrInvalidAmount)
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Categories returns the fixed category enumeration in declared order.
func Categories() []Category {
	return []Category{Food, Transport, Health, Entertainment, Others}
}

// IsKnown reports whether c is a member of the enumeration. Matching is exact.
func (c Category) IsKnown() bool {
	switch c {
	case Food, Transport, Health, Entertainment, Others:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// NewTransaction validates raw form values and builds a Transaction.
// Fields are stored as given; only the amount is converted.
func NewTransaction(amountText, dateText, description, category string) (Transaction, error) {
	required := []struct {
		field string
		value string
	}{
		{"amount", amountText},
		{"date", dateText},
		{"description", description},
		{"category", category},
	}
	for _, r := range required {
		if isBlank(r.value) {
			return Transaction{}, &ValidationError{Field: r.field, Err: ErrMissingField}
		}
	}

	amount, err := ParseAmount(amountText)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "amount", Err: err}
	}

	if _, err := time.Parse(DateLayout, dateText); err != nil {
		return Transaction{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}

	return Transaction{
		amount:      amount,
		amountText:  amountText,
		date:        dateText,
		description: description,
		category:    category,
	}, nil
}

// RestoreTransaction rebuilds a record read back from storage. Blank
// fields and amounts are checked exactly as in NewTransaction. Unlike
// NewTransaction it does not check the date, so records persisted by older
// versions survive a reload.
func RestoreTransaction(amountText, dateText, description, category string) (Transaction, error) {
	for _, v := range []string{amountText, dateText, description, category} {
		if isBlank(v) {
			return Transaction{}, ErrMissingField
		}
	}
	amount, err := ParseAmount(amountText)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		amount:      amount,
		amountText:  amountText,
		date:        dateText,
		description: description,
		category:    category,
	}, nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// Amount returns the numeric amount.
func (t Transaction) Amount() decimal.Decimal { return t.amount }

// AmountText returns the amount exactly as it was entered.
func (t Transaction) AmountText() string { return t.amountText }

// Date returns the ISO date string.
func (t Transaction) Date() string { return t.date }

func (t Transaction) Description() string { return t.description }

func (t Transaction) Category() string { return t.category }

// Month extracts the calendar month (1-12) from the date text. It reads the
// month straight from the ISO string so no timezone can shift the bucket.
func (t Transaction) Month() (int, bool) {
	return monthOf(t.date)
}

func monthOf(date string) (int, bool) {
	if len(date) < len(DateLayout) {
		return 0, false
	}
	parsed, err := time.Parse(DateLayout, date[:len(DateLayout)])
	if err != nil {
		return 0, false
	}
	return int(parsed.Month()), true
}
