// Package currency holds the fixed conversion table and converts money between display currencies.
package currency

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCurrency is returned when a code is missing from the table.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrInvalidTable is returned by NewTable for a malformed table.
	ErrInvalidTable = errors.New("invalid currency table")
)

// Currency is one entry of the conversion table.
type Currency struct {
	Code       string
	Rate       decimal.Decimal // units of this currency per one unit of the reference currency
	MinorUnits int32           // decimal places shown to the user
	Symbol     string
	Lakh       bool // group digits 12,34,567 instead of 1,234,567
}

// Table maps currency codes to multipliers relative to a single reference currency.
// It is immutable once built.
type Table struct {
	reference string
	entries   map[string]Currency
}

// NewTable validates and builds a table. The reference currency must be present with a rate of exactly 1.
func NewTable(reference string, currencies ...Currency) (*Table, error) {
	entries := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		if c.Code == "" {
			return nil, fmt.Errorf("%w: empty currency code", ErrInvalidTable)
		}
		if !c.Rate.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s must be positive", ErrInvalidTable, c.Code)
		}
		if c.MinorUnits < 0 {
			return nil, fmt.Errorf("%w: negative minor units for %s", ErrInvalidTable, c.Code)
		}
		entries[c.Code] = c
	}

	ref, ok := entries[reference]
	if !ok {
		return nil, fmt.Errorf("%w: reference currency %s missing", ErrInvalidTable, reference)
	}
	if !ref.Rate.Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: reference currency %s must have rate 1", ErrInvalidTable, reference)
	}

	return &Table{reference: reference, entries: entries}, nil
}

// MustNewTable is like NewTable but panics on error. Use only for compiled-in tables.
func MustNewTable(reference string, currencies ...Currency) *Table {
	t, err := NewTable(reference, currencies...)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns the storefront's USD based table.
func DefaultTable() *Table {
	return MustNewTable("USD",
		Currency{Code: "USD", Rate: decimal.NewFromInt(1), MinorUnits: 2, Symbol: "$"},
		Currency{Code: "EUR", Rate: decimal.RequireFromString("0.85"), MinorUnits: 2, Symbol: "€"},
		Currency{Code: "INR", Rate: decimal.NewFromInt(74), MinorUnits: 0, Symbol: "₹", Lakh: true},
	)
}

// Reference returns the code every rate is expressed against.
func (t *Table) Reference() string {
	return t.reference
}

// Has reports whether code is in the table.
func (t *Table) Has(code string) bool {
	_, ok := t.entries[code]
	return ok
}

// Lookup returns the table entry for code.
func (t *Table) Lookup(code string) (Currency, error) {
	c, ok := t.entries[code]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Codes returns the supported codes in lexical order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Convert expresses amount, recorded in from, in to: amount / rate[from] * rate[to].
// No rounding is applied.
func (t *Table) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	src, err := t.Lookup(from)
	if err != nil {
		return decimal.Zero, err
	}
	dst, err := t.Lookup(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return amount, nil
	}
	return amount.Div(src.Rate).Mul(dst.Rate), nil
}

// FromReference converts an amount expressed in the reference currency into to.
func (t *Table) FromReference(amount decimal.Decimal, to string) (decimal.Decimal, error) {
	return t.Convert(amount, t.reference, to)
}

// Rebase returns an equivalent table whose reference currency is code.
func (t *Table) Rebase(code string) (*Table, error) {
	ref, err := t.Lookup(code)
	if err != nil {
		return nil, err
	}

	currencies := make([]Currency, 0, len(t.entries))
	for _, c := range t.entries {
		if c.Code == code {
			c.Rate = decimal.NewFromInt(1)
		} else {
			c.Rate = c.Rate.Div(ref.Rate)
		}
		currencies = append(currencies, c)
	}
	return NewTable(code, currencies...)
}
