package entity

// SessionRecordVersion is the schema version written by this service.
const SessionRecordVersion = 1

// SessionRecord is the persisted form of a cart session.
type SessionRecord struct {
	Version  int          `json:"version"`
	Currency string       `json:"currency"`
	Coupon   *CouponState `json:"coupon,omitempty"` // nil means no coupon
	Lines    []CartLine   `json:"lines"`
}

// CartEvent is published on the cart event stream after every state change.
type CartEvent struct {
	SessionID string       `json:"session_id"`
	Type      string       `json:"type"` // e.g., "item_added", "coupon_applied", "currency_changed"
	Summary   OrderSummary `json:"summary"`
}
