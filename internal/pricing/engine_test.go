package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-service/internal/currency"
	"cart-service/internal/entity"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "%s: want %s, got %s", field, want, got)
}

func refTable(t *testing.T) *currency.Table {
	t.Helper()
	table, err := currency.NewTable("REF",
		currency.Currency{Code: "REF", Rate: d("1"), MinorUnits: 2},
		currency.Currency{Code: "A", Rate: d("0.5"), MinorUnits: 2},
	)
	require.NoError(t, err)
	return table
}

func line(id int, price, cur string, qty int) entity.CartLine {
	return entity.CartLine{ProductID: id, UnitPrice: d(price), Currency: cur, Quantity: qty}
}

var applied30 = entity.CouponState{Code: "INDIAISGREAT", DiscountPercent: decimal.NewFromInt(30), Applied: true}

func TestComputeScenarios(t *testing.T) {
	engine := NewEngine(refTable(t), DefaultDelivery())

	tests := []struct {
		name     string
		lines    []entity.CartLine
		coupon   entity.CouponState
		subtotal string
		delivery string
		discount string
		total    string
		waived   bool
	}{
		{
			name:     "delivery waived above threshold",
			lines:    []entity.CartLine{line(1, "100", "REF", 2)},
			coupon:   entity.NoCoupon(),
			subtotal: "200", delivery: "0", discount: "0", total: "200", waived: true,
		},
		{
			name:     "delivery charged below threshold",
			lines:    []entity.CartLine{line(1, "50", "REF", 1)},
			coupon:   entity.NoCoupon(),
			subtotal: "50", delivery: "10", discount: "0", total: "60",
		},
		{
			name:     "coupon applies to subtotal plus delivery",
			lines:    []entity.CartLine{line(1, "50", "REF", 1)},
			coupon:   applied30,
			subtotal: "50", delivery: "10", discount: "18", total: "42",
		},
		{
			name:     "threshold reached exactly waives delivery",
			lines:    []entity.CartLine{line(1, "60", "REF", 2)},
			coupon:   entity.NoCoupon(),
			subtotal: "120", delivery: "0", discount: "0", total: "120", waived: true,
		},
		{
			name:     "empty cart owes nothing",
			coupon:   applied30,
			subtotal: "0", delivery: "0", discount: "0", total: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := engine.Compute(tt.lines, "REF", tt.coupon)
			require.NoError(t, err)

			assertAmount(t, tt.subtotal, s.Subtotal, "subtotal")
			assertAmount(t, tt.delivery, s.DeliveryCharge, "delivery")
			assertAmount(t, tt.discount, s.DiscountAmount, "discount")
			assertAmount(t, tt.total, s.Total, "total")
			assertAmount(t, "10", s.DeliveryFee, "delivery fee")
			assert.Equal(t, tt.waived, s.DeliveryWaived)
		})
	}
}

func TestComputeConvertsFromRecordedCurrency(t *testing.T) {
	engine := NewEngine(refTable(t), DefaultDelivery())

	s, err := engine.Compute([]entity.CartLine{line(1, "100", "REF", 1)}, "A", entity.NoCoupon())
	require.NoError(t, err)
	assertAmount(t, "50", s.Subtotal, "subtotal")
	assertAmount(t, "5", s.DeliveryFee, "delivery fee")
	assertAmount(t, "5", s.DeliveryCharge, "delivery")
	assertAmount(t, "55", s.Total, "total")

	s, err = engine.Compute([]entity.CartLine{line(1, "100", "A", 1)}, "REF", entity.NoCoupon())
	require.NoError(t, err)
	assertAmount(t, "200", s.Subtotal, "subtotal")
	assert.True(t, s.DeliveryWaived)
}

func TestComputePerItemDiscount(t *testing.T) {
	engine := NewEngine(refTable(t), DefaultDelivery())

	l := line(1, "40", "REF", 3)
	l.DiscountPercent = decimal.NewFromInt(25)

	s, err := engine.Compute([]entity.CartLine{l}, "REF", entity.NoCoupon())
	require.NoError(t, err)
	require.Len(t, s.Lines, 1)

	assertAmount(t, "40", s.Lines[0].UnitPrice, "unit")
	assertAmount(t, "30", s.Lines[0].DiscountedPrice, "discounted")
	assertAmount(t, "90", s.Lines[0].LineTotal, "line total")
	assertAmount(t, "120", s.Lines[0].OriginalTotal, "original total")
	assertAmount(t, "90", s.Subtotal, "subtotal")
	assertAmount(t, "100", s.Total, "total")
}

func TestComputeUnknownCurrency(t *testing.T) {
	engine := NewEngine(refTable(t), DefaultDelivery())

	_, err := engine.Compute([]entity.CartLine{line(1, "1", "XXX", 1)}, "REF", entity.NoCoupon())
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)

	_, err = engine.Compute(nil, "XXX", entity.NoCoupon())
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestSubtotalMonotonicInQuantity(t *testing.T) {
	engine := NewEngine(currency.DefaultTable(), DefaultDelivery())

	other := line(2, "19.99", "EUR", 2)
	other.DiscountPercent = decimal.NewFromInt(15)

	prev := decimal.Zero
	for qty := 1; qty <= 20; qty++ {
		lines := []entity.CartLine{line(1, "7.35", "INR", qty), other}
		for _, display := range []string{"USD", "EUR", "INR"} {
			s, err := engine.Compute(lines, display, entity.NoCoupon())
			require.NoError(t, err)
			assert.False(t, s.Subtotal.IsNegative())
			assert.False(t, s.Total.IsNegative())
			if display == "USD" {
				assert.True(t, s.Subtotal.GreaterThanOrEqual(prev), "qty %d: %s < %s", qty, s.Subtotal, prev)
				prev = s.Subtotal
			}
		}
	}
}

func TestComputeDoesNotRoundIntermediateValues(t *testing.T) {
	engine := NewEngine(currency.DefaultTable(), DefaultDelivery())

	// 3 x 0.333 USD in EUR is 0.84915; rounding each line first would give 0.84
	s, err := engine.Compute([]entity.CartLine{line(1, "0.333", "USD", 3)}, "EUR", entity.NoCoupon())
	require.NoError(t, err)
	assertAmount(t, "0.84915", s.Subtotal, "subtotal")

	presented := Present(s, engine.Table())
	assertAmount(t, "0.85", presented.Subtotal, "presented subtotal")
}

func TestPresentRoundsToMinorUnits(t *testing.T) {
	engine := NewEngine(currency.DefaultTable(), DefaultDelivery())

	s, err := engine.Compute([]entity.CartLine{line(1, "1.99", "USD", 1)}, "INR", applied30)
	require.NoError(t, err)

	// 147.26 + 740 delivery, 30% off 887.26
	p := Present(s, engine.Table())
	assertAmount(t, "147", p.Subtotal, "subtotal")
	assertAmount(t, "740", p.DeliveryCharge, "delivery")
	assertAmount(t, "266", p.DiscountAmount, "discount")
	assertAmount(t, "621", p.Total, "total")
	assertAmount(t, "147.26", s.Subtotal, "raw subtotal")
}

func TestPresentedFiguresAddUp(t *testing.T) {
	engine := NewEngine(currency.DefaultTable(), DefaultDelivery())

	s, err := engine.Compute([]entity.CartLine{line(1, "50.005", "USD", 1)}, "USD", applied30)
	require.NoError(t, err)
	assertAmount(t, "18.0015", s.DiscountAmount, "raw discount")

	p := Present(s, engine.Table())
	assertAmount(t, "50.01", p.Subtotal, "subtotal")
	assertAmount(t, "10", p.DeliveryCharge, "delivery")
	assertAmount(t, "42", p.Total, "total")
	assertAmount(t, "18.01", p.DiscountAmount, "discount")
	assertAmount(t, p.Total.String(), p.Subtotal.Add(p.DeliveryCharge).Sub(p.DiscountAmount), "subtotal + delivery - discount")
}

func TestPresentWithoutCouponShowsNoDiscount(t *testing.T) {
	table := currency.MustNewTable("USD",
		currency.Currency{Code: "USD", Rate: decimal.NewFromInt(1), MinorUnits: 2},
		currency.Currency{Code: "MIL", Rate: decimal.RequireFromString("0.0005"), MinorUnits: 2},
	)
	engine := NewEngine(table, DefaultDelivery())

	s, err := engine.Compute([]entity.CartLine{line(1, "10", "USD", 1)}, "MIL", entity.NoCoupon())
	require.NoError(t, err)

	// 0.005 + 0.005 delivery, each rounding up on its own
	p := Present(s, table)
	assertAmount(t, "0.01", p.Subtotal, "subtotal")
	assertAmount(t, "0.01", p.DeliveryCharge, "delivery")
	assertAmount(t, "0", p.DiscountAmount, "discount")
	assertAmount(t, "0.02", p.Total, "total")
}
