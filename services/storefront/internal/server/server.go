package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bookstore/internal/util"
	"bookstore/pkg/cart"
	"bookstore/pkg/catalogview"
	"bookstore/services/storefront/internal/session"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Catalog  catalogview.Fetcher
	Storage  cart.Storage
	Sessions *session.Manager
	// Ping backs /healthz. Nil always reports ok.
	Ping func(context.Context) error
	// CategoriesTTL bounds how long the category list is cached. Zero caches it for the process lifetime.
	CategoriesTTL time.Duration
}

// Server renders the storefront: the catalog page and the cart.
type Server struct {
	catalog  catalogview.Fetcher
	storage  cart.Storage
	sessions *session.Manager
	ping     func(context.Context) error
	pages    pages
	metrics  *util.HTTPMetrics
	mux      *http.ServeMux

	categoriesTTL    time.Duration
	categoriesMu     sync.RWMutex
	categories       []string
	categoriesLoaded time.Time
	categoriesGroup  singleflight.Group
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog client required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("session storage required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager required")
	}
	tmpl, err := parsePages("catalog", "cart", "error")
	if err != nil {
		return nil, err
	}
	s := &Server{
		catalog:       cfg.Catalog,
		storage:       cfg.Storage,
		sessions:      cfg.Sessions,
		ping:          cfg.Ping,
		pages:         tmpl,
		metrics:       util.NewHTTPMetrics("storefront"),
		mux:           http.NewServeMux(),
		categoriesTTL: cfg.CategoriesTTL,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.PageContentSecurityPolicy, s.mux)))
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", s.metrics.Wrap("/healthz", http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/metrics", s.metrics.Handler())

	s.mux.Handle("/", s.metrics.Wrap("/", http.HandlerFunc(s.handleCatalog)))

	// cart
	s.mux.Handle("/cart", s.metrics.Wrap("/cart", http.HandlerFunc(s.handleCart)))
	s.mux.Handle("/cart/add", s.metrics.Wrap("/cart/add", http.HandlerFunc(s.handleCartAdd)))
	s.mux.Handle("/cart/increase", s.metrics.Wrap("/cart/increase", s.cartMutation((*cart.Store).Increase)))
	s.mux.Handle("/cart/decrease", s.metrics.Wrap("/cart/decrease", s.cartMutation((*cart.Store).Decrease)))
	s.mux.Handle("/cart/remove", s.metrics.Wrap("/cart/remove", s.cartMutation((*cart.Store).Remove)))
	s.mux.Handle("/api/cart", s.metrics.Wrap("/api/cart", http.HandlerFunc(s.handleCartAPI)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			util.LoggerFromContext(r.Context()).Warn("health check failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForStorefront(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

func errorCodeForStorefront(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "session storage unavailable", message == "cart unavailable":
		return "CART_STORAGE_UNAVAILABLE"
	case message == "session unavailable":
		return "SESSION_UNAVAILABLE"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	}

	switch status {
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusServiceUnavailable:
		return "CART_STORAGE_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
