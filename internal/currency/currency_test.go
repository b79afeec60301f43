package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func twoCurrencyTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("REF",
		Currency{Code: "REF", Rate: d("1"), MinorUnits: 2},
		Currency{Code: "A", Rate: d("0.5"), MinorUnits: 2},
	)
	require.NoError(t, err)
	return table
}

func TestConvert(t *testing.T) {
	table := twoCurrencyTable(t)

	got, err := table.Convert(d("100"), "REF", "A")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("50")), "got %s", got)

	got, err = table.Convert(d("100"), "A", "REF")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("200")), "got %s", got)
}

func TestConvertUnknownCurrency(t *testing.T) {
	table := twoCurrencyTable(t)

	_, err := table.Convert(d("1"), "XXX", "REF")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = table.Convert(d("1"), "REF", "XXX")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestConvertRoundTrip(t *testing.T) {
	table := DefaultTable()
	tolerance := d("0.000000001")

	for _, amount := range []string{"0", "0.01", "19.99", "100", "109.95", "123456.78"} {
		for _, from := range table.Codes() {
			for _, to := range table.Codes() {
				there, err := table.Convert(d(amount), from, to)
				require.NoError(t, err)
				back, err := table.Convert(there, to, from)
				require.NoError(t, err)
				assert.True(t, back.Sub(d(amount)).Abs().LessThan(tolerance),
					"%s %s -> %s -> %s = %s", amount, from, to, from, back)
			}
		}
	}
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable("USD", Currency{Code: "EUR", Rate: d("0.85")})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable("USD", Currency{Code: "USD", Rate: d("2")})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = NewTable("USD", Currency{Code: "USD", Rate: d("1")}, Currency{Code: "EUR", Rate: d("0")})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, []string{"EUR", "INR", "USD"}, DefaultTable().Codes())
}

func TestRoundAndFormat(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.Round(d("41.995"), "USD").Equal(d("42")))
	assert.True(t, table.Round(d("14799.6"), "INR").Equal(d("14800")))

	assert.Equal(t, "$200.00", table.Format(d("200"), "USD"))
	assert.Equal(t, "$1,234.57", table.Format(d("1234.567"), "USD"))
	assert.Equal(t, "€42.50", table.Format(d("42.5"), "EUR"))
	assert.Equal(t, "₹14,800", table.Format(d("14800"), "INR"))
	assert.Equal(t, "₹1,48,000", table.Format(d("148000"), "INR"))
	assert.Equal(t, "-$5.00", table.Format(d("-5"), "USD"))
}

func TestRebase(t *testing.T) {
	table, err := DefaultTable().Rebase("EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", table.Reference())

	got, err := table.FromReference(d("85"), "USD")
	require.NoError(t, err)
	assert.True(t, got.Sub(d("100")).Abs().LessThan(d("0.000001")), "got %s", got)

	_, err = DefaultTable().Rebase("GBP")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
