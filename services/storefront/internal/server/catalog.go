package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bookstore/internal/util"
	"bookstore/pkg/catalogclient"
	"bookstore/pkg/catalogview"
	"bookstore/pkg/domain"
)

type catalogPage struct {
	chrome
	Categories  []string
	Query       catalogQuery
	State       catalogview.State
	PageNumbers []int
	PageSizes   []int
	HasPrev     bool
	HasNext     bool
	CartTotal   decimal.Decimal
	Added       bool
	Error       string
	RetryURL    string
}

// PageURL links to page n keeping the other parameters.
func (p catalogPage) PageURL(n int) string {
	q := p.Query
	q.PageNum = n
	return q.URL()
}

// SortURL links to the next sort mode on the same page.
func (p catalogPage) SortURL() string {
	q := p.Query
	q.Sort = q.Sort.Next()
	return q.URL()
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.renderError(w, r, http.StatusNotFound, "page not found", "")
		return
	}
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		s.renderError(w, r, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	sessionID, err := s.sessions.Resolve(w, r)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("resolve session failed", "err", err)
		s.renderError(w, r, http.StatusInternalServerError, "session unavailable", "")
		return
	}

	query := parseCatalogQuery(r.URL.Query())
	view := query.view()

	var categories []string
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		categories = s.loadCategories(gctx)
		return nil
	})
	g.Go(func() error {
		return view.Refresh(gctx, s.catalog)
	})
	fetchErr := g.Wait()

	// A page number past the end is pulled back to the last page.
	if fetchErr == nil {
		view.SetPage(view.State().PageNum)
		if view.NeedsFetch() {
			fetchErr = view.Refresh(r.Context(), s.catalog)
		}
	}

	st := view.State()
	data := catalogPage{
		chrome:      chrome{Title: "Catalog"},
		Categories:  categories,
		Query:       queryFromState(st),
		State:       st,
		PageNumbers: view.PageNumbers(),
		PageSizes:   catalogview.PageSizeOptions,
		HasPrev:     view.HasPrev(),
		HasNext:     view.HasNext(),
		CartTotal:   decimal.Zero,
		Added:       query.Added,
	}
	if !slices.Contains(data.Categories, st.Category) {
		data.Categories = append(data.Categories, st.Category)
	}
	if store, err := s.openCart(r.Context(), sessionID); err != nil {
		util.LoggerFromContext(r.Context()).Warn("cart unavailable for badge", "err", err)
	} else {
		c := store.Cart()
		data.CartCount = c.Count()
		data.CartTotal = c.Total()
	}

	status := http.StatusOK
	if fetchErr != nil {
		util.LoggerFromContext(r.Context()).Warn("catalog fetch failed", "err", fetchErr, "category", st.Category, "pageNum", st.PageNum)
		status = http.StatusBadGateway
		data.Error = fetchReason(fetchErr)
		data.RetryURL = data.Query.URL()
	}
	s.pages.render(w, r, status, "catalog", data)
}

func fetchReason(err error) string {
	var apiErr *catalogclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "the catalog took too long to answer"
	default:
		return "the catalog service is unavailable"
	}
}

// loadCategories returns the cached category list, loading it once for all concurrent
// callers when missing or expired. On failure it returns just "All" and retries next time.
func (s *Server) loadCategories(ctx context.Context) []string {
	cached, ok := s.cachedCategories()
	if ok {
		return slices.Clone(cached)
	}

	v, err, _ := s.categoriesGroup.Do("categories", func() (any, error) {
		if fresh, ok := s.cachedCategories(); ok {
			return fresh, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		categories, err := catalogview.LoadCategories(loadCtx, s.catalog)
		if err != nil {
			return nil, err
		}
		s.categoriesMu.Lock()
		s.categories = categories
		s.categoriesLoaded = time.Now()
		s.categoriesMu.Unlock()
		return categories, nil
	})
	if err != nil {
		util.LoggerFromContext(ctx).Warn("load categories failed", "err", err)
		if cached != nil {
			return slices.Clone(cached)
		}
		return []string{domain.CategoryAll}
	}
	return slices.Clone(v.([]string))
}

// cachedCategories returns the last loaded list and whether it is still fresh.
func (s *Server) cachedCategories() ([]string, bool) {
	s.categoriesMu.RLock()
	defer s.categoriesMu.RUnlock()
	if s.categories == nil {
		return nil, false
	}
	return s.categories, s.categoriesTTL <= 0 || time.Since(s.categoriesLoaded) < s.categoriesTTL
}
