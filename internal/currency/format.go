package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const defaultMinorUnits = 2

// Places returns the number of decimal places shown for code.
func (t *Table) Places(code string) int32 {
	if c, ok := t.entries[code]; ok {
		return c.MinorUnits
	}
	return defaultMinorUnits
}

// Round rounds amount half away from zero to the minor units of code.
func (t *Table) Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(t.Places(code))
}

// Format renders amount for display, e.g. "$1,234.50" or "₹1,48,000".
func (t *Table) Format(amount decimal.Decimal, code string) string {
	c, ok := t.entries[code]
	if !ok {
		c = Currency{Code: code, MinorUnits: defaultMinorUnits, Symbol: code + " "}
	}

	text := amount.StringFixed(c.MinorUnits)
	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")

	whole, frac, _ := strings.Cut(text, ".")
	whole = group(whole, c.Lakh)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(c.Symbol)
	b.WriteString(whole)
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func group(digits string, lakh bool) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	size := 3
	if lakh {
		size = 2
	}

	var parts []string
	for len(head) > size {
		parts = append([]string{head[len(head)-size:]}, parts...)
		head = head[:len(head)-size]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(append(parts, tail), ",")
}
