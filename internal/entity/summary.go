package entity

import "github.com/shopspring/decimal"

// OrderSummary is derived from the current session state on every request and never stored.
// All amounts are in Currency.
type OrderSummary struct {
	Currency        string          `json:"currency"`
	Lines           []LineSummary   `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`    // would-be surcharge, shown struck through when waived
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"` // amount actually owed
	DeliveryWaived  bool            `json:"delivery_waived"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
}

// LineSummary is the converted price breakdown of a single cart line.
type LineSummary struct {
	ProductID       int             `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	OriginalTotal   decimal.Decimal `json:"original_total"`
}
