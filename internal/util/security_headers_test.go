package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestWithSecurityHeadersDefaultsToAPIPolicy(t *testing.T) {
	h := WithSecurityHeaders("", http.HandlerFunc(noContent))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Book/AllBooks", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options mismatch: %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options mismatch: %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != APIContentSecurityPolicy {
		t.Fatalf("CSP mismatch: %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("did not expect HSTS for plain http, got %q", got)
	}
}

func TestWithSecurityHeadersPagePolicy(t *testing.T) {
	h := WithSecurityHeaders(PageContentSecurityPolicy, http.HandlerFunc(noContent))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Security-Policy"); got != PageContentSecurityPolicy {
		t.Fatalf("CSP mismatch: %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got == "" {
		t.Fatalf("expected HSTS header on forwarded https request")
	}
}
