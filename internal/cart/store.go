// Package cart keeps the ordered collection of lines in a single cart.
package cart

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"cart-service/internal/entity"
)

// MaxQuantity bounds a single line's quantity.
const MaxQuantity = math.MaxInt32

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrItemNotFound    = errors.New("item not in cart")
)

var hundred = decimal.NewFromInt(100)

// Store holds cart lines in insertion order. It is not safe for concurrent use;
// the owning session serializes access.
type Store struct {
	lines []entity.CartLine
	index map[int]int // productID -> position in lines
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{index: make(map[int]int)}
}

// Restore builds a store from persisted lines. Lines must be valid and unique.
func Restore(lines []entity.CartLine) (*Store, error) {
	s := NewStore()
	for _, line := range lines {
		if err := validateLine(line); err != nil {
			return nil, err
		}
		if _, ok := s.index[line.ProductID]; ok {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrInvalidProduct, line.ProductID)
		}
		s.index[line.ProductID] = len(s.lines)
		s.lines = append(s.lines, line)
	}
	return s, nil
}

// AddItem inserts product with quantity 1, or increments the existing line by 1.
// The product's price, currency and discount are captured at the time of the call.
func (s *Store) AddItem(product entity.Product) (entity.CartLine, error) {
	if i, ok := s.index[product.ID]; ok {
		if s.lines[i].Quantity >= MaxQuantity {
			return entity.CartLine{}, fmt.Errorf("%w: product %d at maximum quantity", ErrInvalidQuantity, product.ID)
		}
		s.lines[i].Quantity++
		return s.lines[i], nil
	}

	line := entity.CartLine{
		ProductID:       product.ID,
		Title:           product.Title,
		Image:           product.Image,
		UnitPrice:       product.Price,
		Currency:        product.Currency,
		DiscountPercent: product.DiscountPercent,
		Quantity:        1,
	}
	if err := validateLine(line); err != nil {
		return entity.CartLine{}, err
	}

	s.index[line.ProductID] = len(s.lines)
	s.lines = append(s.lines, line)
	return line, nil
}

// RemoveItem deletes the line for productID.
func (s *Store) RemoveItem(productID int) error {
	i, ok := s.index[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", ErrItemNotFound, productID)
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].ProductID] = j
	}
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes the line.
func (s *Store) UpdateQuantity(productID int, quantity int64) error {
	if quantity > MaxQuantity {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidQuantity, quantity, MaxQuantity)
	}

	i, ok := s.index[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", ErrItemNotFound, productID)
	}
	if quantity <= 0 {
		return s.RemoveItem(productID)
	}

	s.lines[i].Quantity = int(quantity)
	return nil
}

// Get returns the line for productID.
func (s *Store) Get(productID int) (entity.CartLine, bool) {
	i, ok := s.index[productID]
	if !ok {
		return entity.CartLine{}, false
	}
	return s.lines[i], true
}

// ListItems returns a copy of the lines in insertion order.
func (s *Store) ListItems() []entity.CartLine {
	out := make([]entity.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	return len(s.lines)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.lines = nil
	s.index = make(map[int]int)
}

func validateLine(line entity.CartLine) error {
	switch {
	case line.Quantity < 1 || line.Quantity > MaxQuantity:
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity)
	case line.UnitPrice.IsNegative():
		return fmt.Errorf("%w: negative price for product %d", ErrInvalidProduct, line.ProductID)
	case line.Currency == "":
		return fmt.Errorf("%w: missing currency for product %d", ErrInvalidProduct, line.ProductID)
	case line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred):
		return fmt.Errorf("%w: discount %s out of range for product %d", ErrInvalidProduct, line.DiscountPercent, line.ProductID)
	}
	return nil
}
