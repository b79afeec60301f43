package entity

import "github.com/shopspring/decimal"

// CartLine is one product entry in a cart, keyed by ProductID.
// Price, currency and discount are captured when the line is created and never change afterwards.
type CartLine struct {
	ProductID       int             `json:"product_id"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Currency        string          `json:"currency"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
}

// HasDiscount reports whether the line carries its own per-item discount.
func (l CartLine) HasDiscount() bool {
	return l.DiscountPercent.IsPositive()
}
