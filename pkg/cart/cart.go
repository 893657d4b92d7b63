// Package cart holds the shopping cart: pure transitions on Cart and a
// write-through Store that mirrors every transition into session storage.
package cart

import (
	"github.com/shopspring/decimal"

	"bookstore/pkg/domain"
)

// Cart is an ordered list of items, unique by book id. The zero value is an empty cart.
// Transitions return a new Cart and never modify the receiver.
type Cart struct {
	items []domain.CartItem
}

// New builds a cart from items, merging duplicates and dropping non-positive quantities.
func New(items ...domain.CartItem) Cart {
	var c Cart
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i := c.index(item.Book.BookID); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

// Items returns a copy of the cart lines in insertion order.
func (c Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len is the number of distinct books.
func (c Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// Quantity returns how many copies of the book are in the cart.
func (c Cart) Quantity(bookID int64) int {
	if i := c.index(bookID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Add puts one more copy of book in the cart. A new book is appended at the end.
func (c Cart) Add(book domain.Book) Cart {
	next := c.clone()
	if i := next.index(book.BookID); i >= 0 {
		next.items[i].Quantity++
		return next
	}
	next.items = append(next.items, domain.CartItem{Book: book, Quantity: 1})
	return next
}

// Increase adds one to the line for bookID. Unknown ids are ignored.
func (c Cart) Increase(bookID int64) Cart {
	i := c.index(bookID)
	if i < 0 {
		return c
	}
	next := c.clone()
	next.items[i].Quantity++
	return next
}

// Decrease removes one from the line for bookID and drops the line at zero.
func (c Cart) Decrease(bookID int64) Cart {
	i := c.index(bookID)
	if i < 0 {
		return c
	}
	if c.items[i].Quantity <= 1 {
		return c.Remove(bookID)
	}
	next := c.clone()
	next.items[i].Quantity--
	return next
}

// Remove drops the line for bookID regardless of its quantity.
func (c Cart) Remove(bookID int64) Cart {
	i := c.index(bookID)
	if i < 0 {
		return c
	}
	items := make([]domain.CartItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}
}

// Total is the exact sum of price * quantity.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the sum of quantities, shown on the cart badge.
func (c Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c Cart) index(bookID int64) int {
	for i, item := range c.items {
		if item.Book.BookID == bookID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	items := make([]domain.CartItem, len(c.items), len(c.items)+1)
	copy(items, c.items)
	return Cart{items: items}
}
