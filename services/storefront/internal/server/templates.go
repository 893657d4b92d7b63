package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"bookstore/internal/util"
	"bookstore/pkg/catalogview"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"sortArrow": func(m catalogview.SortMode) string {
		switch m {
		case catalogview.SortAscending:
			return "▲"
		case catalogview.SortDescending:
			return "▼"
		default:
			return ""
		}
	},
}

// chrome is the data every page layout needs.
type chrome struct {
	Title     string
	CartCount int
}

type pages map[string]*template.Template

func parsePages(names ...string) (pages, error) {
	out := make(pages, len(names))
	for _, name := range names {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

// render executes the page into a buffer first so a template failure never leaves a half-written response.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := p[name]
	if !ok {
		util.LoggerFromContext(r.Context()).Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		util.LoggerFromContext(r.Context()).Error("render template failed", "name", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	chrome
	Message   string
	RequestID string
	RetryURL  string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg, retryURL string) {
	s.pages.render(w, r, status, "error", errorPage{
		chrome:    chrome{Title: http.StatusText(status)},
		Message:   msg,
		RequestID: util.RequestIDFromRequest(r),
		RetryURL:  retryURL,
	})
}
