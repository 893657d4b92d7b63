package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bookstore/internal/util"
	"bookstore/pkg/cart"
	"bookstore/pkg/catalogview"
	"bookstore/pkg/domain"
)

const (
	cartKeyName     = "cart"
	lastPageKeyName = "lastPage"
	maxFormBytes    = 1 << 16
)

func (s *Server) openCart(ctx context.Context, sessionID string) (*cart.Store, error) {
	return cart.Open(ctx, s.storage, cart.Key(sessionID, cartKeyName))
}

// lastPage is the catalog page the shopper last added a book from. Defaults to 1.
func (s *Server) lastPage(ctx context.Context, sessionID string) int {
	data, err := s.storage.Get(ctx, cart.Key(sessionID, lastPageKeyName))
	if err != nil {
		if !errors.Is(err, cart.ErrNotFound) {
			util.LoggerFromContext(ctx).Warn("read last page failed", "err", err)
		}
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *Server) setLastPage(ctx context.Context, sessionID string, pageNum int) error {
	return s.storage.Set(ctx, cart.Key(sessionID, lastPageKeyName), []byte(strconv.Itoa(pageNum)))
}

func parseBookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("bookID")), 10, 64)
	return id, err == nil && id > 0
}

func parsePostForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm()
}

// POST /cart/add re-fetches the page the shopper was looking at and adds the book from it,
// then returns to that page.
func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		s.renderError(w, r, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if err := parsePostForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid form data", "")
		return
	}
	bookID, ok := parseBookID(r)
	if !ok {
		s.renderError(w, r, http.StatusBadRequest, "bookID must be a positive integer", "")
		return
	}
	sessionID, err := s.sessions.Resolve(w, r)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("resolve session failed", "err", err)
		s.renderError(w, r, http.StatusInternalServerError, "session unavailable", "")
		return
	}

	query := parseCatalogQuery(r.PostForm)
	view := query.view()
	if err := view.Refresh(r.Context(), s.catalog); err != nil {
		util.LoggerFromContext(r.Context()).Warn("catalog fetch failed", "err", err)
		s.renderError(w, r, http.StatusBadGateway, "Could not load books: "+fetchReason(err), query.URL())
		return
	}
	book, found := findBook(view.State().Books, bookID)
	if !found {
		s.renderError(w, r, http.StatusNotFound, "That book is no longer on this page.", query.URL())
		return
	}

	store, err := s.openCart(r.Context(), sessionID)
	if err == nil {
		_, err = store.Add(r.Context(), book)
	}
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("add to cart failed", "err", err, "book_id", bookID)
		s.renderError(w, r, http.StatusServiceUnavailable, "cart unavailable", query.URL())
		return
	}
	if err := s.setLastPage(r.Context(), sessionID, view.State().PageNum); err != nil {
		util.LoggerFromContext(r.Context()).Warn("record last page failed", "err", err)
	}

	query.Added = true
	http.Redirect(w, r, query.URL(), http.StatusSeeOther)
}

func findBook(books []domain.Book, id int64) (domain.Book, bool) {
	for _, b := range books {
		if b.BookID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

type cartPage struct {
	chrome
	Items       []domain.CartItem
	Total       decimal.Decimal
	ContinueURL string
}

// GET /cart
func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
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
	store, err := s.openCart(r.Context(), sessionID)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("open cart failed", "err", err)
		s.renderError(w, r, http.StatusServiceUnavailable, "cart unavailable", "/cart")
		return
	}
	c := store.Cart()
	s.pages.render(w, r, http.StatusOK, "cart", cartPage{
		chrome:      chrome{Title: "Cart", CartCount: c.Count()},
		Items:       c.Items(),
		Total:       c.Total(),
		ContinueURL: continueShoppingURL(s.lastPage(r.Context(), sessionID)),
	})
}

func continueShoppingURL(pageNum int) string {
	return catalogQuery{
		Category: domain.CategoryAll,
		PageSize: catalogview.DefaultPageSize,
		PageNum:  pageNum,
	}.URL()
}

type cartTransition func(*cart.Store, context.Context, int64) (cart.Cart, error)

// cartMutation serves POST /cart/{increase,decrease,remove} and redirects back to the cart.
func (s *Server) cartMutation(apply cartTransition) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			s.renderError(w, r, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		if err := parsePostForm(w, r); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "invalid form data", "")
			return
		}
		bookID, ok := parseBookID(r)
		if !ok {
			s.renderError(w, r, http.StatusBadRequest, "bookID must be a positive integer", "/cart")
			return
		}
		sessionID, err := s.sessions.Resolve(w, r)
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("resolve session failed", "err", err)
			s.renderError(w, r, http.StatusInternalServerError, "session unavailable", "")
			return
		}
		store, err := s.openCart(r.Context(), sessionID)
		if err == nil {
			_, err = apply(store, r.Context(), bookID)
		}
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("update cart failed", "err", err, "path", r.URL.Path, "book_id", bookID)
			s.renderError(w, r, http.StatusServiceUnavailable, "cart unavailable", "/cart")
			return
		}
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
	})
}

type cartLine struct {
	Book     domain.Book     `json:"book"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// GET /api/cart
func (s *Server) handleCartAPI(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sessionID, err := s.sessions.Resolve(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	store, err := s.openCart(r.Context(), sessionID)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("open cart failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return
	}
	c := store.Cart()
	lines := make([]cartLine, 0, c.Len())
	for _, item := range c.Items() {
		lines = append(lines, cartLine{Book: item.Book, Quantity: item.Quantity, Subtotal: item.Subtotal()})
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: lines, Count: c.Count(), Total: c.Total()})
}
