package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/ratelimit"
	"bookstore/internal/util"
	"bookstore/services/catalog/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Limiter throttles /Book/AllBooks per client IP. Nil disables rate limiting.
	Limiter            ratelimit.Limiter
	TrustedProxies     *util.TrustedProxies
	CORSAllowedOrigins []string
	// Ping backs /healthz. Nil always reports ok.
	Ping func(context.Context) error
}

// Server exposes HTTP endpoints for the catalog service.
type Server struct {
	app     *app.App
	limiter ratelimit.Limiter
	trusted *util.TrustedProxies
	origins []string
	ping    func(context.Context) error
	metrics *util.HTTPMetrics
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("catalog app required")
	}
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		trusted: cfg.TrustedProxies,
		origins: cfg.CORSAllowedOrigins,
		ping:    cfg.Ping,
		metrics: util.NewHTTPMetrics("catalog"),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.APIContentSecurityPolicy, util.WithCORS(s.origins, s.mux))))
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", s.metrics.Wrap("/healthz", http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/metrics", s.metrics.Handler())

	allBooks := ratelimit.Middleware(s.limiter, s.rateLimitKey, time.Minute, rateLimited, http.HandlerFunc(s.handleAllBooks))
	s.mux.Handle("/Book/AllBooks", s.metrics.Wrap("/Book/AllBooks", allBooks))
}

func (s *Server) rateLimitKey(r *http.Request) string {
	return util.ClientIP(r, s.trusted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			util.LoggerFromContext(r.Context()).Warn("health check failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /Book/AllBooks?category=&pageSize=&pageNum=
func (s *Server) handleAllBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	pageSize, err := intParam(query.Get("pageSize"), app.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pageSize must be an integer")
		return
	}
	pageNum, err := intParam(query.Get("pageNum"), app.DefaultPageNum)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pageNum must be an integer")
		return
	}

	page, err := s.app.GetBooks(r.Context(), app.Query{
		Category: query.Get("category"),
		PageSize: pageSize,
		PageNum:  pageNum,
	})
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("get books failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusTooManyRequests, "too many requests")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
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
		Code:      errorCodeForCatalog(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

func errorCodeForCatalog(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.HasSuffix(message, "must be an integer"):
		return "CATALOG_INVALID_QUERY"
	case message == "store unavailable":
		return "CATALOG_STORE_UNAVAILABLE"
	case message == "too many requests":
		return "SYSTEM_RATE_LIMITED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	}

	switch status {
	case http.StatusBadRequest:
		return "CATALOG_INVALID_QUERY"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
