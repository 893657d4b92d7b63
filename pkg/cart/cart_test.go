package cart

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/domain"
)

func book(id int64, price string) domain.Book {
	return domain.Book{
		BookID:   id,
		Title:    fmt.Sprintf("Book %d", id),
		Category: "Fiction",
		Price:    decimal.RequireFromString(price),
	}
}

func TestAddTwiceKeepsOneLine(t *testing.T) {
	b := book(1, "10.00")
	c := Cart{}.Add(b).Add(b)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Quantity(1))
	assert.Equal(t, 2, c.Count())
}

func TestAddAppendsInOrder(t *testing.T) {
	c := Cart{}.Add(book(3, "1")).Add(book(1, "1")).Add(book(3, "1"))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].Book.BookID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(1), items[1].Book.BookID)
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	before := Cart{}.Add(book(1, "10.00"))
	after := before.Add(book(1, "10.00")).Add(book(2, "5.00"))

	assert.Equal(t, 1, before.Quantity(1))
	assert.Equal(t, 1, before.Len())
	assert.Equal(t, 2, after.Quantity(1))
}

func TestIncreaseDecrease(t *testing.T) {
	c := Cart{}.Add(book(1, "10.00")).Increase(1)
	assert.Equal(t, 2, c.Quantity(1))

	c = c.Decrease(1)
	assert.Equal(t, 1, c.Quantity(1))

	c = c.Decrease(1)
	assert.True(t, c.IsEmpty(), "decrease at quantity 1 removes the line")

	assert.True(t, c.Increase(42).IsEmpty(), "increase of an absent id is a no-op")
	assert.True(t, c.Decrease(42).IsEmpty(), "decrease of an absent id is a no-op")
}

func TestRemove(t *testing.T) {
	c := Cart{}.Add(book(1, "1")).Add(book(2, "1")).Increase(2).Add(book(3, "1"))

	c = c.Remove(2)
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Book.BookID)
	assert.Equal(t, int64(3), items[1].Book.BookID)
	assert.Equal(t, 2, c.Remove(99).Len())
}

func TestTotalAndCount(t *testing.T) {
	a := book(1, "10.00")
	b := book(2, "5.00")
	c := Cart{}.Add(a).Add(a).Add(b)

	assert.True(t, c.Total().Equal(decimal.RequireFromString("25.00")), "total = %s", c.Total())
	assert.Equal(t, 3, c.Count())
	assert.True(t, Cart{}.Total().IsZero())
}

func TestTotalIsExact(t *testing.T) {
	c := Cart{}
	for i := 0; i < 10; i++ {
		c = c.Add(book(1, "0.10"))
	}
	assert.Equal(t, "1", c.Total().String())
}

func TestNewMergesAndDropsEmptyLines(t *testing.T) {
	c := New(
		domain.CartItem{Book: book(1, "1"), Quantity: 2},
		domain.CartItem{Book: book(2, "1"), Quantity: 0},
		domain.CartItem{Book: book(1, "1"), Quantity: 1},
	)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 3, c.Quantity(1))
}
