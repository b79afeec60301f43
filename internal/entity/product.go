package entity

import "github.com/shopspring/decimal"

// Product is the record supplied by the catalog provider.
type Product struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Image           string          `json:"image"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	DiscountPercent decimal.Decimal `json:"discount"` // zero when the product carries no discount
	IsNew           bool            `json:"is_new,omitempty"`
	IsHot           bool            `json:"is_hot,omitempty"`
}
