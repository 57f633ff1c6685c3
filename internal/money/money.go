package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when constructing a value from a negative amount.
	ErrInvalidAmount = errors.New("money: amount must not be negative")
	// ErrCurrencyMismatch is returned when combining values tagged with different currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	// ErrNegativeResult is returned when a subtraction would produce a negative amount.
	ErrNegativeResult = errors.New("money: result would be negative")
	// ErrInvalidScalar is returned when multiplying or dividing by a negative scalar.
	ErrInvalidScalar = errors.New("money: scalar must not be negative")
	// ErrDivisionByZero is returned when dividing by zero.
	ErrDivisionByZero = errors.New("money: division by zero")
)

// DefaultCurrency is assumed when a caller omits the currency code.
const DefaultCurrency = "USD"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"IDR": "Rp",
}

// Money is an immutable currency-tagged amount. Every value is rounded to two
// decimal places at construction, so repeated arithmetic cannot drift by
// fractional cents. Operations return fresh values and never mutate receivers.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds a Money from a decimal amount. Negative amounts are rejected.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	return Money{amount: amount.Round(2), currency: normalizeCurrency(currency)}, nil
}

// NewFromString parses a decimal string such as "12.50".
func NewFromString(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return New(d, currency)
}

// NewFromFloat converts a float amount. Intended for configuration and seed
// data; prefer New or NewFromString where exactness matters.
func NewFromFloat(value float64, currency string) (Money, error) {
	return New(decimal.NewFromFloat(value), currency)
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: normalizeCurrency(currency)}
}

// Amount returns the rounded decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount equals zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount).Round(2), currency: m.currency}, nil
}

// Sub returns m - other. The result must not be negative.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if m.amount.LessThan(other.amount) {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrNegativeResult, m.amount, other.amount)
	}
	return Money{amount: m.amount.Sub(other.amount).Round(2), currency: m.currency}, nil
}

// MulInt returns m scaled by a non-negative integer factor.
func (m Money) MulInt(factor int64) (Money, error) {
	if factor < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidScalar, factor)
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor)).Round(2), currency: m.currency}, nil
}

// Mul returns m scaled by a non-negative decimal factor.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidScalar, factor.String())
	}
	return Money{amount: m.amount.Mul(factor).Round(2), currency: m.currency}, nil
}

// Div returns m divided by a positive decimal divisor.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	if divisor.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidScalar, divisor.String())
	}
	return Money{amount: m.amount.Div(divisor).Round(2), currency: m.currency}, nil
}

// Cmp compares two same-currency values: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports whether m exceeds other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// LessThan reports whether m is smaller than other.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// Equal reports whether amount and currency both match exactly.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the amount with two decimals and a currency symbol when the
// code is recognised, falling back to "<amount> <code>".
func (m Money) String() string {
	if sym, ok := symbols[m.currency]; ok {
		return sym + m.amount.StringFixed(2)
	}
	return m.amount.StringFixed(2) + " " + m.currency
}

// MarshalJSON renders the value as {"amount":"12.50","currency":"USD"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"amount":%q,"currency":%q}`, m.amount.StringFixed(2), m.currency)), nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}
