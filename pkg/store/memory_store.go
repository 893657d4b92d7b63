package store

import (
	"context"
	"sort"
	"sync"

	"bookstore/pkg/domain"
)

// MemoryStore keeps the catalog in-process. Used for local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[int64]domain.Book
}

// NewMemoryStore initializes a store holding the given books.
func NewMemoryStore(books ...domain.Book) *MemoryStore {
	m := &MemoryStore{books: make(map[int64]domain.Book, len(books))}
	for _, b := range books {
		m.books[b.BookID] = b
	}
	return m
}

// ListBooks mirrors GormStore.ListBooks: filter, count, order by book_id, then window.
func (m *MemoryStore) ListBooks(_ context.Context, q BookQuery) ([]domain.Book, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		if domain.IsAllCategories(q.Category) || b.Category == q.Category {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BookID < matched[j].BookID })

	total := len(matched)
	if q.Limit <= 0 || q.Offset >= total {
		return []domain.Book{}, total, nil
	}
	end := min(q.Offset+q.Limit, total)
	out := make([]domain.Book, end-q.Offset)
	copy(out, matched[q.Offset:end])
	return out, total, nil
}

// SaveBooks stores or replaces books by id.
func (m *MemoryStore) SaveBooks(_ context.Context, books []domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range books {
		m.books[b.BookID] = b
	}
	return nil
}
