package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"

	"bookstore/internal/ratelimit"
	"bookstore/pkg/domain"
	"bookstore/pkg/store"
	"bookstore/services/catalog/internal/app"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.App == nil {
		books := make([]domain.Book, 0, 12)
		for i := 1; i <= 12; i++ {
			category := "Fiction"
			if i > 9 {
				category = "Biography"
			}
			books = append(books, domain.Book{
				BookID:    int64(i),
				Title:     fmt.Sprintf("Title %d", i),
				Category:  category,
				PageCount: 100 + i,
				Price:     decimal.RequireFromString("10.50"),
			})
		}
		a, err := app.New(app.Config{Store: store.NewMemoryStore(books...)})
		if err != nil {
			t.Fatalf("new app: %v", err)
		}
		cfg.App = a
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

type pageBody struct {
	Books []map[string]any `json:"books"`
	Total int              `json:"totalNumBooks"`
}

func getPage(t *testing.T, url string) (int, pageBody) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body pageBody
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, body
}

func TestAllBooksDefaults(t *testing.T) {
	ts := newTestServer(t, Config{})
	status, body := getPage(t, ts.URL+"/Book/AllBooks")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(body.Books) != 5 || body.Total != 12 {
		t.Fatalf("default page: %d books, total %d", len(body.Books), body.Total)
	}
	first := body.Books[0]
	if first["bookID"] != float64(1) || first["price"] != 10.5 || first["pageCount"] != float64(101) {
		t.Fatalf("unexpected wire format: %v", first)
	}
	for _, key := range []string{"title", "author", "publisher", "isbn", "classification", "category"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("missing %q in %v", key, first)
		}
	}
}

func TestAllBooksPagingAndFilter(t *testing.T) {
	ts := newTestServer(t, Config{})

	_, body := getPage(t, ts.URL+"/Book/AllBooks?pageSize=5&pageNum=3")
	if len(body.Books) != 2 || body.Total != 12 {
		t.Fatalf("page 3: %d books, total %d", len(body.Books), body.Total)
	}
	_, body = getPage(t, ts.URL+"/Book/AllBooks?pageSize=5&pageNum=4")
	if body.Books == nil || len(body.Books) != 0 || body.Total != 12 {
		t.Fatalf("page 4 should be empty with total: %+v", body)
	}
	_, body = getPage(t, ts.URL+"/Book/AllBooks?category=Biography&pageSize=10")
	if len(body.Books) != 3 || body.Total != 3 {
		t.Fatalf("biography: %d books, total %d", len(body.Books), body.Total)
	}
	_, body = getPage(t, ts.URL+"/Book/AllBooks?category=All&pageSize=0&pageNum=0")
	if len(body.Books) != 1 || body.Total != 12 {
		t.Fatalf("coerced paging: %d books, total %d", len(body.Books), body.Total)
	}
}

func TestAllBooksRejectsNonIntegerPaging(t *testing.T) {
	ts := newTestServer(t, Config{})
	for _, q := range []string{"pageSize=abc", "pageNum=1.5"} {
		resp, err := http.Get(ts.URL + "/Book/AllBooks?" + q)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		var body errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", q, resp.StatusCode)
		}
		if body.Code != "CATALOG_INVALID_QUERY" || body.RequestID == "" {
			t.Fatalf("%s: unexpected error body %+v", q, body)
		}
	}
}

func TestAllBooksMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Post(ts.URL+"/Book/AllBooks", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Allow"); got != "GET, HEAD" {
		t.Fatalf("Allow = %q", got)
	}
}

func TestAllBooksRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(mr.Addr(), "", "test:catalog", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	ts := newTestServer(t, Config{Limiter: limiter})

	if status, _ := getPage(t, ts.URL+"/Book/AllBooks"); status != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", status)
	}
	resp, err := http.Get(ts.URL + "/Book/AllBooks")
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "60" || body.Code != "SYSTEM_RATE_LIMITED" {
		t.Fatalf("unexpected throttle response: %v %+v", resp.Header, body)
	}

	if resp, err := http.Get(ts.URL + "/healthz"); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz is not rate limited: %v %v", resp, err)
	}
}

func TestHealthz(t *testing.T) {
	healthy := newTestServer(t, Config{Ping: func(context.Context) error { return nil }})
	resp, err := http.Get(healthy.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthy: %v %v", resp, err)
	}
	resp.Body.Close()

	down := newTestServer(t, Config{Ping: func(context.Context) error { return errors.New("down") }})
	resp, err = http.Get(down.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})
	getPage(t, ts.URL+"/Book/AllBooks")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `bookstore_http_requests_total{method="GET",route="/Book/AllBooks",service="catalog",status="200"} 1`) {
		t.Fatalf("metrics missing request counter:\n%s", data)
	}
}

func TestErrorCodeForCatalog(t *testing.T) {
	cases := []struct {
		status int
		msg    string
		want   string
	}{
		{http.StatusBadRequest, "pageNum must be an integer", "CATALOG_INVALID_QUERY"},
		{http.StatusTooManyRequests, "too many requests", "SYSTEM_RATE_LIMITED"},
		{http.StatusMethodNotAllowed, "method not allowed", "SYSTEM_METHOD_NOT_ALLOWED"},
		{http.StatusInternalServerError, "internal error", "SYSTEM_INTERNAL_ERROR"},
		{http.StatusTeapot, "odd", "REQUEST_ERROR"},
	}
	for _, tc := range cases {
		if got := errorCodeForCatalog(tc.status, tc.msg); got != tc.want {
			t.Fatalf("errorCodeForCatalog(%d, %q) = %q, want %q", tc.status, tc.msg, got, tc.want)
		}
	}
}
