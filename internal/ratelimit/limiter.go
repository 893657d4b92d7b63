// Package ratelimit throttles catalog requests per client key.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// KeyFunc derives the limiter key from a request.
type KeyFunc func(*http.Request) string

// Rejecter writes the response for a throttled request.
type Rejecter func(http.ResponseWriter, *http.Request)

// Middleware rejects requests whose key is over quota. retryAfter is advertised in
// the Retry-After header, rounded up to whole seconds.
func Middleware(l Limiter, key KeyFunc, retryAfter time.Duration, reject Rejecter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	retry := strconv.Itoa(seconds)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(normalizeKey(key(r))) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", retry)
		reject(w, r)
	})
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "unknown"
	}
	return key
}
