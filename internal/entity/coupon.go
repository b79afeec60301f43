package entity

import "github.com/shopspring/decimal"

// CouponState is the whole-order coupon currently attached to a session.
// DiscountPercent > 0 if and only if Applied is true.
type CouponState struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Applied         bool            `json:"applied"`
}

// NoCoupon returns the empty coupon state.
func NoCoupon() CouponState {
	return CouponState{DiscountPercent: decimal.Zero}
}

// Valid reports whether the state satisfies the applied/percent invariant.
func (c CouponState) Valid() bool {
	if c.Applied {
		return c.DiscountPercent.IsPositive() && c.DiscountPercent.LessThanOrEqual(decimal.NewFromInt(100)) && c.Code != ""
	}
	return c.DiscountPercent.IsZero() && c.Code == ""
}
