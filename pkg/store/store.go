package store

import (
	"context"

	"bookstore/pkg/domain"
)

// BookQuery filters and windows the catalog. An empty Category or domain.CategoryAll means no filter.
type BookQuery struct {
	Category string
	Limit    int
	Offset   int
}

// Store defines persistence operations for the catalog.
type Store interface {
	// ListBooks returns the books of the requested window ordered by book_id,
	// plus the number of books matching the filter before windowing.
	ListBooks(ctx context.Context, q BookQuery) ([]domain.Book, int, error)
	// SaveBooks inserts or replaces books by book_id.
	SaveBooks(ctx context.Context, books []domain.Book) error
}
