// Package pricing computes order summaries from cart lines, the display currency and the coupon state.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cart-service/internal/currency"
	"cart-service/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// Delivery is the surcharge policy, expressed in the table's reference currency.
type Delivery struct {
	Threshold decimal.Decimal // subtotal at or above which the charge is waived
	Charge    decimal.Decimal
}

// DefaultDelivery is the storefront policy: free delivery from 120, otherwise 10.
func DefaultDelivery() Delivery {
	return Delivery{Threshold: decimal.NewFromInt(120), Charge: decimal.NewFromInt(10)}
}

// Engine is stateless and safe for concurrent use.
type Engine struct {
	table    *currency.Table
	delivery Delivery
}

func NewEngine(table *currency.Table, delivery Delivery) *Engine {
	return &Engine{table: table, delivery: delivery}
}

// Table returns the conversion table the engine prices with.
func (e *Engine) Table() *currency.Table {
	return e.table
}

// Compute recalculates the summary from scratch. Nothing is rounded; use Present before display.
//
// The coupon percentage applies to subtotal plus delivery charge, not to the subtotal alone.
func (e *Engine) Compute(lines []entity.CartLine, display string, coupon entity.CouponState) (entity.OrderSummary, error) {
	summary := entity.OrderSummary{
		Currency:        display,
		Lines:           make([]entity.LineSummary, 0, len(lines)),
		Subtotal:        decimal.Zero,
		DeliveryCharge:  decimal.Zero,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  decimal.Zero,
	}

	for _, line := range lines {
		ls, err := e.priceLine(line, display)
		if err != nil {
			return entity.OrderSummary{}, err
		}
		summary.Lines = append(summary.Lines, ls)
		summary.Subtotal = summary.Subtotal.Add(ls.LineTotal)
	}

	threshold, err := e.table.FromReference(e.delivery.Threshold, display)
	if err != nil {
		return entity.OrderSummary{}, fmt.Errorf("delivery threshold: %w", err)
	}
	fee, err := e.table.FromReference(e.delivery.Charge, display)
	if err != nil {
		return entity.OrderSummary{}, fmt.Errorf("delivery charge: %w", err)
	}
	summary.DeliveryFee = fee

	switch {
	case len(lines) == 0:
		// nothing to deliver
	case summary.Subtotal.GreaterThanOrEqual(threshold):
		summary.DeliveryWaived = true
	default:
		summary.DeliveryCharge = fee
	}

	gross := summary.Subtotal.Add(summary.DeliveryCharge)
	if coupon.Applied && coupon.DiscountPercent.IsPositive() {
		summary.DiscountPercent = coupon.DiscountPercent
		summary.DiscountAmount = gross.Mul(coupon.DiscountPercent).Div(hundred)
	}

	summary.Total = gross.Sub(summary.DiscountAmount)
	if summary.Total.IsNegative() {
		summary.Total = decimal.Zero
	}
	return summary, nil
}

func (e *Engine) priceLine(line entity.CartLine, display string) (entity.LineSummary, error) {
	unit, err := e.table.Convert(line.UnitPrice, line.Currency, display)
	if err != nil {
		return entity.LineSummary{}, fmt.Errorf("product %d: %w", line.ProductID, err)
	}

	discounted := unit
	if line.HasDiscount() {
		discounted = unit.Mul(hundred.Sub(line.DiscountPercent)).Div(hundred)
	}

	qty := decimal.NewFromInt(int64(line.Quantity))
	return entity.LineSummary{
		ProductID:       line.ProductID,
		Quantity:        line.Quantity,
		UnitPrice:       unit,
		DiscountedPrice: discounted,
		LineTotal:       discounted.Mul(qty),
		OriginalTotal:   unit.Mul(qty),
	}, nil
}

// Present returns a copy of summary with every amount rounded to the display currency's minor units.
// The discount is derived from the rounded figures so that subtotal + delivery - discount equals total.
func Present(summary entity.OrderSummary, table *currency.Table) entity.OrderSummary {
	round := func(d decimal.Decimal) decimal.Decimal {
		return table.Round(d, summary.Currency)
	}

	out := summary
	out.Lines = make([]entity.LineSummary, len(summary.Lines))
	for i, ls := range summary.Lines {
		ls.UnitPrice = round(ls.UnitPrice)
		ls.DiscountedPrice = round(ls.DiscountedPrice)
		ls.LineTotal = round(ls.LineTotal)
		ls.OriginalTotal = round(ls.OriginalTotal)
		out.Lines[i] = ls
	}
	out.Subtotal = round(summary.Subtotal)
	out.DeliveryFee = round(summary.DeliveryFee)
	out.DeliveryCharge = round(summary.DeliveryCharge)
	gross := out.Subtotal.Add(out.DeliveryCharge)
	if summary.DiscountAmount.IsZero() {
		out.DiscountAmount = decimal.Zero
		out.Total = gross
		return out
	}
	out.Total = round(summary.Total)
	out.DiscountAmount = gross.Sub(out.Total)
	return out
}
