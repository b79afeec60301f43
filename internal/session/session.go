// Package session owns the per-shopper cart, coupon and display currency, and keeps them durable.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"cart-service/internal/cart"
	"cart-service/internal/coupon"
	"cart-service/internal/currency"
	"cart-service/internal/entity"
	"cart-service/internal/events"
	"cart-service/internal/pricing"
	"cart-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ErrPersistenceUnavailable wraps failures of the durable store. Sessions log it and keep working in memory.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// Session serializes every read and write of one shopper's state behind a single mutex,
// since totals depend on the cart and the coupon together.
type Session struct {
	mu       sync.Mutex
	id       string
	currency string
	cart     *cart.Store
	coupon   *coupon.Machine
	degraded bool
	unloaded bool // stored record could not be read; never written back
	dirty    bool // changed since it was loaded

	engine    *pricing.Engine
	repo      *repository.SessionRepository
	publisher events.Publisher
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AddItem adds one unit of product. A product without a currency is taken to be priced in the reference currency.
func (s *Session) AddItem(ctx context.Context, product entity.Product) (entity.CartLine, error) {
	table := s.engine.Table()
	if product.Currency == "" {
		product.Currency = table.Reference()
	}
	if !table.Has(product.Currency) {
		return entity.CartLine{}, fmt.Errorf("product %d: %w: %q", product.ID, currency.ErrUnknownCurrency, product.Currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := s.cart.AddItem(product)
	if err != nil {
		return entity.CartLine{}, err
	}
	s.changed(ctx, events.ItemAdded)
	return line, nil
}

// RemoveItem deletes the line for productID.
func (s *Session) RemoveItem(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.RemoveItem(productID); err != nil {
		return err
	}
	s.changed(ctx, events.ItemRemoved)
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Session) UpdateQuantity(ctx context.Context, productID int, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.UpdateQuantity(productID, quantity); err != nil {
		return err
	}
	if quantity <= 0 {
		s.changed(ctx, events.ItemRemoved)
	} else {
		s.changed(ctx, events.QuantityUpdated)
	}
	return nil
}

// Items lists the cart lines in insertion order.
func (s *Session) Items() []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ListItems()
}

// ApplyCoupon tries code against the recognized coupon.
func (s *Session) ApplyCoupon(ctx context.Context, code string) coupon.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.coupon.Apply(code)
	switch outcome {
	case coupon.OutcomeApplied:
		s.changed(ctx, events.CouponApplied)
	case coupon.OutcomeInvalid:
		logger.Info().Msgf("Rejected coupon code for session %s", s.id)
	}
	return outcome
}

// RemoveCoupon returns to NoCoupon and clears the persisted coupon.
func (s *Session) RemoveCoupon(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coupon.Remove()
	s.changed(ctx, events.CouponRemoved)
}

// Coupon returns the current coupon state.
func (s *Session) Coupon() entity.CouponState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon.State()
}

// SetCurrency switches the display currency. Recorded line prices are not touched.
func (s *Session) SetCurrency(ctx context.Context, code string) error {
	if _, err := s.engine.Table().Lookup(code); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currency == code {
		return nil
	}
	s.currency = code
	s.changed(ctx, events.CurrencyChanged)
	return nil
}

// Currency returns the display currency.
func (s *Session) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

// Summary recomputes the order summary from the current state.
func (s *Session) Summary() (entity.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary()
}

// Clear empties the cart, drops the coupon, resets the currency and deletes the persisted record.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	s.coupon.Remove()
	s.currency = s.engine.Table().Reference()
	s.dirty = true

	if s.repo != nil && !s.unloaded {
		if err := s.repo.Delete(ctx, s.id); err != nil {
			s.persistFailed(fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err))
		} else {
			s.degraded = false
		}
	}
	s.publish(ctx, events.CartCleared)
}

// Degraded reports whether the last write to the durable store failed.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// reloadable reports whether the session is a stand-in for an unreadable record that has not been touched yet.
func (s *Session) reloadable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloaded && !s.dirty
}

func (s *Session) summary() (entity.OrderSummary, error) {
	return s.engine.Compute(s.cart.ListItems(), s.currency, s.coupon.State())
}

// changed persists and publishes after a transition. Callers hold s.mu.
func (s *Session) changed(ctx context.Context, eventType string) {
	s.dirty = true
	s.persist(ctx)
	s.publish(ctx, eventType)
}

// persist writes the session record. A session whose stored record could not be read stays
// in memory only, so the record in the store is never replaced by a partial cart.
func (s *Session) persist(ctx context.Context) {
	if s.repo == nil || s.unloaded {
		return
	}

	record := &entity.SessionRecord{
		Currency: s.currency,
		Lines:    s.cart.ListItems(),
	}
	if state := s.coupon.State(); state.Applied {
		record.Coupon = &state
	}

	if err := s.repo.Save(ctx, s.id, record); err != nil {
		s.persistFailed(fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err))
		return
	}
	s.degraded = false
}

func (s *Session) persistFailed(err error) {
	s.degraded = true
	logger.Error().Err(err).Msgf("Error persisting session %s, continuing in memory", s.id)
}

func (s *Session) publish(ctx context.Context, eventType string) {
	if s.publisher == nil {
		return
	}
	summary, err := s.summary()
	if err != nil {
		logger.Error().Err(err).Msgf("Error computing summary for %s event of session %s", eventType, s.id)
		return
	}
	// publish failures are logged by the publisher and never undo the transition
	_ = s.publisher.Publish(ctx, entity.CartEvent{SessionID: s.id, Type: eventType, Summary: summary})
}
