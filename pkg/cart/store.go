package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
)

// ErrStorage wraps every failure to read or persist a cart.
var ErrStorage = errors.New("cart storage")

// Store is the cart of one session. Each mutation is applied to the stored snapshot
// as one atomic read-modify-write, so stores opened on the same key by concurrent
// requests never drop each other's changes. A mutation is persisted before it becomes
// visible; a failed write leaves the previous cart in place.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	cart    Cart
}

// Open rehydrates the cart stored under key. A missing key yields an empty cart, and so
// does a malformed snapshot, which is logged and left to be overwritten by the next write.
func Open(ctx context.Context, storage Storage, key string) (*Store, error) {
	s := &Store{storage: storage, key: key}
	data, err := storage.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: load %s: %w", ErrStorage, key, err)
	}
	c, err := Decode(data)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("discarding unreadable cart snapshot", "key", key, "err", err)
		return s, nil
	}
	s.cart = c
	return s, nil
}

// Cart returns the current cart.
func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Add puts one more copy of book in the cart.
func (s *Store) Add(ctx context.Context, book domain.Book) (Cart, error) {
	return s.apply(ctx, func(c Cart) Cart { return c.Add(book) })
}

// Increase adds one to the quantity of bookID.
func (s *Store) Increase(ctx context.Context, bookID int64) (Cart, error) {
	return s.apply(ctx, func(c Cart) Cart { return c.Increase(bookID) })
}

// Decrease subtracts one from the quantity of bookID, removing it at zero.
func (s *Store) Decrease(ctx context.Context, bookID int64) (Cart, error) {
	return s.apply(ctx, func(c Cart) Cart { return c.Decrease(bookID) })
}

// Remove drops bookID from the cart.
func (s *Store) Remove(ctx context.Context, bookID int64) (Cart, error) {
	return s.apply(ctx, func(c Cart) Cart { return c.Remove(bookID) })
}

func (s *Store) apply(ctx context.Context, transition func(Cart) Cart) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next Cart
	err := s.storage.Update(ctx, s.key, func(current []byte, found bool) ([]byte, error) {
		base := Cart{}
		if found {
			c, err := Decode(current)
			if err != nil {
				util.LoggerFromContext(ctx).Warn("discarding unreadable cart snapshot", "key", s.key, "err", err)
			} else {
				base = c
			}
		}
		next = transition(base)
		return Encode(next)
	})
	if err != nil {
		return s.cart, fmt.Errorf("%w: save %s: %w", ErrStorage, s.key, err)
	}
	s.cart = next
	return next, nil
}
