package catalogclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListBooks(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AllBooksPath {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books":[{"bookID":3,"title":"Dune","category":"Fiction","pageCount":412,"price":9.99}],"totalNumBooks":12}`))
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL+"/").ListBooks(context.Background(), "Fiction", 5, 3)
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if gotQuery != "category=Fiction&pageNum=3&pageSize=5" {
		t.Fatalf("query = %q", gotQuery)
	}
	if page.TotalCount != 12 || len(page.Books) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if b := page.Books[0]; b.BookID != 3 || b.Title != "Dune" || b.Price.String() != "9.99" {
		t.Fatalf("unexpected book: %+v", b)
	}
}

func TestListBooksOmitsAllCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("category") {
			t.Fatalf("category should be omitted, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"books":null,"totalNumBooks":0}`))
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL).ListBooks(context.Background(), "All", 5, 1)
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if page.Books == nil || len(page.Books) != 0 {
		t.Fatalf("expected empty non-nil books, got %#v", page.Books)
	}
}

func TestListBooksMapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"pageSize must be an integer","code":"CATALOG_INVALID_QUERY"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListBooks(context.Background(), "", 5, 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "CATALOG_INVALID_QUERY" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestListBooksHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL).ListBooks(ctx, "", 5, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
