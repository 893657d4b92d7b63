package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryAll is the reserved filter value meaning "no category restriction".
const CategoryAll = "All"

func init() {
	// Prices travel as JSON numbers ({"price": 10.5}), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Book is a catalog entry. It is owned by the catalog service and read-only everywhere else.
type Book struct {
	BookID         int64           `json:"bookID"`
	Title          string          `json:"title"`
	Author         string          `json:"author"`
	Publisher      string          `json:"publisher"`
	ISBN           string          `json:"isbn"`
	Classification string          `json:"classification"`
	Category       string          `json:"category"`
	PageCount      int             `json:"pageCount"`
	Price          decimal.Decimal `json:"price"`
}

// CartItem is a denormalized copy of a book plus how many of it the shopper wants.
type CartItem struct {
	Book     Book `json:"book"`
	Quantity int  `json:"quantity"`
}

// Subtotal returns price * quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Book.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Page is one window of the filtered catalog.
type Page struct {
	Books      []Book `json:"books"`
	TotalCount int    `json:"totalNumBooks"`
}

// IsAllCategories reports whether category means "no filter".
func IsAllCategories(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || category == CategoryAll
}
