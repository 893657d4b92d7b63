package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"bookstore/pkg/domain"
)

// ErrInvalidSnapshot marks stored data that cannot be turned back into a cart.
var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

// Encode serializes the cart as a JSON array of {book, quantity}. An empty cart is "[]".
func Encode(c Cart) ([]byte, error) {
	items := c.items
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode. Anything that is not an array of
// items with a positive book id and quantity and unique ids is rejected.
func Decode(data []byte) (Cart, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if items == nil {
		return Cart{}, fmt.Errorf("%w: not an array", ErrInvalidSnapshot)
	}
	seen := make(map[int64]struct{}, len(items))
	for i, item := range items {
		if item.Book.BookID <= 0 {
			return Cart{}, fmt.Errorf("%w: item %d has no book id", ErrInvalidSnapshot, i)
		}
		if item.Quantity <= 0 {
			return Cart{}, fmt.Errorf("%w: item %d quantity %d", ErrInvalidSnapshot, i, item.Quantity)
		}
		if _, dup := seen[item.Book.BookID]; dup {
			return Cart{}, fmt.Errorf("%w: duplicate book %d", ErrInvalidSnapshot, item.Book.BookID)
		}
		seen[item.Book.BookID] = struct{}{}
	}
	return Cart{items: items}, nil
}
