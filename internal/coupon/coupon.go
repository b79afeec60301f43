// Package coupon tracks the single whole-order coupon of a cart session.
package coupon

import (
	"github.com/shopspring/decimal"

	"cart-service/internal/entity"
)

// Outcome is the result of an apply attempt. An invalid code is an outcome, not an error.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeAlreadyApplied
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyApplied:
		return "already_applied"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Rule is the one recognized coupon code and the percentage it grants.
type Rule struct {
	Code    string
	Percent decimal.Decimal
}

// Machine moves between NoCoupon and Applied(code, percent).
type Machine struct {
	rule  Rule
	state entity.CouponState
}

// NewMachine returns a machine in the NoCoupon state.
func NewMachine(rule Rule) *Machine {
	return &Machine{rule: rule, state: entity.NoCoupon()}
}

// Restore rebuilds a machine from persisted state. State that is inconsistent or no longer
// matches the rule falls back to NoCoupon and ok is false.
func Restore(rule Rule, state entity.CouponState) (m *Machine, ok bool) {
	m = NewMachine(rule)
	if !state.Valid() {
		return m, false
	}
	if state.Applied && (state.Code != rule.Code || !state.DiscountPercent.Equal(rule.Percent)) {
		return m, false
	}
	m.state = state
	return m, true
}

// Apply compares code with the recognized code, case-sensitively. While a coupon is applied
// further calls leave the state untouched.
func (m *Machine) Apply(code string) Outcome {
	if m.state.Applied {
		return OutcomeAlreadyApplied
	}
	if code == "" || code != m.rule.Code {
		m.state = entity.NoCoupon()
		return OutcomeInvalid
	}

	m.state = entity.CouponState{
		Code:            code,
		DiscountPercent: m.rule.Percent,
		Applied:         true,
	}
	return OutcomeApplied
}

// Remove forces NoCoupon.
func (m *Machine) Remove() {
	m.state = entity.NoCoupon()
}

// State returns the current coupon state.
func (m *Machine) State() entity.CouponState {
	return m.state
}
