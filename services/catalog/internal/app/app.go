package app

import (
	"context"
	"errors"
	"fmt"

	"bookstore/pkg/domain"
	"bookstore/pkg/store"
)

const (
	DefaultPageSize    = 5
	DefaultPageNum     = 1
	DefaultMaxPageSize = 1000
)

// Config holds runtime configuration for the catalog.
type Config struct {
	Store       store.Store
	MaxPageSize int
}

// App answers catalog queries from the book store.
type App struct {
	store       store.Store
	maxPageSize int
}

// Query selects one page of the catalog. An empty Category or "All" means no filter.
type Query struct {
	Category string
	PageSize int
	PageNum  int
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("book store required")
	}
	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &App{store: cfg.Store, maxPageSize: maxPageSize}, nil
}

// MaxPageSize is the largest page GetBooks will return.
func (a *App) MaxPageSize() int {
	return a.maxPageSize
}

// GetBooks returns the requested page of the filtered catalog, ordered by book id, with
// the filtered total. Page size and number below 1 are treated as 1 and the page size is
// capped at MaxPageSize; the window is computed from the capped size, so pages stay
// contiguous. A page past the end is empty but still carries the total. The category
// must match exactly; only "All" and blank mean no filter.
func (a *App) GetBooks(ctx context.Context, q Query) (domain.Page, error) {
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > a.maxPageSize {
		pageSize = a.maxPageSize
	}
	pageNum := q.PageNum
	if pageNum < 1 {
		pageNum = 1
	}
	category := q.Category
	if domain.IsAllCategories(category) {
		category = ""
	}

	books, total, err := a.store.ListBooks(ctx, store.BookQuery{
		Category: category,
		Limit:    pageSize,
		Offset:   offset(pageSize, pageNum),
	})
	if err != nil {
		return domain.Page{}, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return domain.Page{Books: books, TotalCount: total}, nil
}

// offset saturates instead of overflowing for absurd page numbers.
func offset(pageSize, pageNum int) int {
	const maxInt = int(^uint(0) >> 1)
	if pageNum-1 > maxInt/pageSize {
		return maxInt
	}
	return (pageNum - 1) * pageSize
}
