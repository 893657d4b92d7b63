package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"bookstore/pkg/domain"
)

func twelveBooks() []domain.Book {
	books := make([]domain.Book, 0, 12)
	for i := 12; i >= 1; i-- {
		category := "Fiction"
		if i%3 == 0 {
			category = "Biography"
		}
		books = append(books, domain.Book{
			BookID:   int64(i),
			Title:    fmt.Sprintf("Book %02d", i),
			Category: category,
			Price:    decimal.NewFromInt(int64(i)),
		})
	}
	return books
}

func TestMemoryStorePagination(t *testing.T) {
	s := NewMemoryStore(twelveBooks()...)
	ctx := context.Background()

	wantSizes := []int{5, 5, 2, 0}
	var lastID int64
	for page, want := range wantSizes {
		books, total, err := s.ListBooks(ctx, BookQuery{Limit: 5, Offset: page * 5})
		if err != nil {
			t.Fatalf("page %d: %v", page+1, err)
		}
		if total != 12 {
			t.Fatalf("page %d: total = %d, want 12", page+1, total)
		}
		if len(books) != want {
			t.Fatalf("page %d: len = %d, want %d", page+1, len(books), want)
		}
		for _, b := range books {
			if b.BookID <= lastID {
				t.Fatalf("page %d: book %d out of book_id order", page+1, b.BookID)
			}
			lastID = b.BookID
		}
	}
}

func TestMemoryStoreCategoryFilter(t *testing.T) {
	s := NewMemoryStore(twelveBooks()...)
	ctx := context.Background()

	books, total, err := s.ListBooks(ctx, BookQuery{Category: "Biography", Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(books) != 4 {
		t.Fatalf("got total=%d len=%d, want 4", total, len(books))
	}
	for _, b := range books {
		if b.Category != "Biography" {
			t.Fatalf("unexpected category %q", b.Category)
		}
	}

	for _, all := range []string{"", "All", "  "} {
		_, total, err := s.ListBooks(ctx, BookQuery{Category: all, Limit: 1})
		if err != nil {
			t.Fatalf("list %q: %v", all, err)
		}
		if total != 12 {
			t.Fatalf("category %q: total = %d, want 12", all, total)
		}
	}

	_, total, err = s.ListBooks(ctx, BookQuery{Category: "Poetry", Limit: 5})
	if err != nil || total != 0 {
		t.Fatalf("unknown category: total=%d err=%v", total, err)
	}
}

func TestMemoryStoreSaveBooksReplacesByID(t *testing.T) {
	s := NewMemoryStore(twelveBooks()...)
	ctx := context.Background()

	if err := s.SaveBooks(ctx, []domain.Book{{BookID: 1, Title: "Renamed", Category: "Fiction"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	books, total, _ := s.ListBooks(ctx, BookQuery{Limit: 1})
	if total != 12 {
		t.Fatalf("total = %d, want 12", total)
	}
	if books[0].Title != "Renamed" {
		t.Fatalf("title = %q, want Renamed", books[0].Title)
	}
}
