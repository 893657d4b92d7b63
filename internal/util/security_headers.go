package util

import (
	"net/http"
	"strings"
)

const (
	// APIContentSecurityPolicy forbids everything; JSON responses load nothing.
	APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	// PageContentSecurityPolicy allows same-origin forms and inline styles for server-rendered pages.
	PageContentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'; base-uri 'none'"
)

// WithSecurityHeaders adds security response headers using the given Content-Security-Policy.
func WithSecurityHeaders(csp string, next http.Handler) http.Handler {
	if strings.TrimSpace(csp) == "" {
		csp = APIContentSecurityPolicy
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", csp)

		// HSTS only over HTTPS (direct or forwarded).
		if r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
