// Package catalogview models the catalog page independently of any UI: the
// pagination and filter state, the page-local title sort and the fetch lifecycle.
//
// Every fetch is tagged with a sequence number. Only the completion of the most
// recently issued fetch is applied, so a slow response for superseded parameters
// can never overwrite a newer one.
package catalogview

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/text/collate"

	"bookstore/pkg/domain"
)

// Defaults of a fresh view.
const (
	DefaultPageSize = 5
	DefaultPageNum  = 1
)

// PageSizeOptions are the page sizes offered to shoppers.
var PageSizeOptions = []int{5, 10, 20}

// Status is the fetch lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Fetcher loads one page of the catalog. *catalogclient.Client satisfies it.
type Fetcher interface {
	ListBooks(ctx context.Context, category string, pageSize, pageNum int) (domain.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, category string, pageSize, pageNum int) (domain.Page, error)

// ListBooks calls f.
func (f FetcherFunc) ListBooks(ctx context.Context, category string, pageSize, pageNum int) (domain.Page, error) {
	return f(ctx, category, pageSize, pageNum)
}

// Params identify a page request.
type Params struct {
	Category string
	PageSize int
	PageNum  int
}

// Request is an issued fetch.
type Request struct {
	Seq    uint64
	Params Params
}

// State is a snapshot of the view.
type State struct {
	Params
	Sort       SortMode
	Status     Status
	Err        error
	Books      []domain.Book
	TotalCount int
	// Stale is set when Books belong to an earlier fetch because the latest one failed.
	Stale bool
}

// View is safe for concurrent use.
type View struct {
	mu       sync.Mutex
	params   Params
	sort     SortMode
	status   Status
	err      error
	stale    bool
	total    int
	known    bool
	server   []domain.Book
	books    []domain.Book
	seq      uint64
	issued   Params
	hasIssue bool
	collator *collate.Collator
}

// New returns a view on the first page of all categories with the default page size.
func New() *View {
	return NewWithState(domain.CategoryAll, DefaultPageSize, DefaultPageNum, SortDefault)
}

// NewWithState restores a view from externally held state, e.g. query parameters.
// Invalid values fall back to the defaults.
func NewWithState(category string, pageSize, pageNum int, sort SortMode) *View {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageNum < 1 {
		pageNum = DefaultPageNum
	}
	return &View{
		params: Params{
			Category: normalizeCategory(category),
			PageSize: pageSize,
			PageNum:  pageNum,
		},
		sort:     sort,
		books:    []domain.Book{},
		collator: newCollator(),
	}
}

func normalizeCategory(category string) string {
	if domain.IsAllCategories(category) {
		return domain.CategoryAll
	}
	return category
}

// State returns a snapshot. The Books slice is a copy.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Params:     v.params,
		Sort:       v.sort,
		Status:     v.status,
		Err:        v.err,
		Books:      slices.Clone(v.books),
		TotalCount: v.total,
		Stale:      v.stale,
	}
}

// SetCategory filters by category and returns to page 1 when the value changes.
func (v *View) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	category = normalizeCategory(category)
	if category == v.params.Category {
		return
	}
	v.params.Category = category
	v.params.PageNum = 1
}

// SetPageSize changes the page size and returns to page 1 when the value changes.
// Sizes below 1 are ignored.
func (v *View) SetPageSize(size int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if size < 1 || size == v.params.PageSize {
		return
	}
	v.params.PageSize = size
	v.params.PageNum = 1
}

// SetPage jumps to page n, clamped to [1, TotalPages] once the total is known.
func (v *View) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.params.PageNum = v.clampPage(n)
}

// NextPage advances one page. It does nothing on the last page or before the total is known.
func (v *View) NextPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.known && v.params.PageNum < v.totalPages() {
		v.params.PageNum++
	}
}

// PrevPage goes back one page. It does nothing on page 1.
func (v *View) PrevPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.params.PageNum > 1 {
		v.params.PageNum--
	}
}

func (v *View) clampPage(n int) int {
	if v.known {
		if tp := v.totalPages(); n > tp {
			n = tp
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// HasPrev and HasNext mirror the enabled state of the pagination buttons.
func (v *View) HasPrev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.params.PageNum > 1
}

func (v *View) HasNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.known && v.params.PageNum < v.totalPages()
}

// ToggleSort advances the sort mode and reorders the current page.
func (v *View) ToggleSort() SortMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = v.sort.Next()
	v.books = sortBooks(v.collator, v.server, v.sort)
	return v.sort
}

// SetSort selects a sort mode directly and reorders the current page.
func (v *View) SetSort(mode SortMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = mode
	v.books = sortBooks(v.collator, v.server, v.sort)
}

// TotalPages is ceil(TotalCount / PageSize); 0 before the first successful fetch.
func (v *View) TotalPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalPages()
}

func (v *View) totalPages() int {
	if v.params.PageSize < 1 {
		return 0
	}
	return (v.total + v.params.PageSize - 1) / v.params.PageSize
}

// PageNumbers lists 1..TotalPages for the page buttons.
func (v *View) PageNumbers() []int {
	tp := v.TotalPages()
	out := make([]int, tp)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// NeedsFetch reports whether the requested parameters differ from the last issued fetch.
func (v *View) NeedsFetch() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.hasIssue || v.issued != v.params
}

// Begin issues a fetch for the current parameters and moves to loading.
// Any earlier outstanding request is superseded.
func (v *View) Begin() Request {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.begin(v.params)
}

func (v *View) begin(p Params) Request {
	v.seq++
	v.issued = p
	v.hasIssue = true
	v.status = StatusLoading
	v.err = nil
	return Request{Seq: v.seq, Params: p}
}

// Complete applies the outcome of req. It returns false, changing nothing, when req
// is not the most recently issued request.
func (v *View) Complete(req Request, page domain.Page, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if req.Seq != v.seq {
		return false
	}
	if err != nil {
		v.status = StatusError
		v.err = err
		v.stale = len(v.server) > 0
		return true
	}
	v.server = slices.Clone(page.Books)
	v.books = sortBooks(v.collator, v.server, v.sort)
	v.total = page.TotalCount
	v.known = true
	v.status = StatusLoaded
	v.stale = false
	return true
}

// Refresh fetches the current parameters if they changed since the last fetch.
func (v *View) Refresh(ctx context.Context, f Fetcher) error {
	if !v.NeedsFetch() {
		return nil
	}
	return v.run(ctx, f, v.Begin())
}

// Reload fetches the current parameters unconditionally.
func (v *View) Reload(ctx context.Context, f Fetcher) error {
	return v.run(ctx, f, v.Begin())
}

// ErrNothingToRetry is returned by Retry when the last fetch did not fail.
var ErrNothingToRetry = errors.New("catalogview: nothing to retry")

// Retry re-issues the failed request with the same parameters.
func (v *View) Retry(ctx context.Context, f Fetcher) error {
	v.mu.Lock()
	if v.status != StatusError {
		v.mu.Unlock()
		return ErrNothingToRetry
	}
	req := v.begin(v.issued)
	v.mu.Unlock()
	return v.run(ctx, f, req)
}

func (v *View) run(ctx context.Context, f Fetcher, req Request) error {
	page, err := f.ListBooks(ctx, req.Params.Category, req.Params.PageSize, req.Params.PageNum)
	v.Complete(req, page, err)
	return err
}

// Result is the outcome of an asynchronous fetch.
type Result struct {
	Request Request
	// Applied is false when a newer request superseded this one.
	Applied bool
	Err     error
}

// FetchAsync issues a fetch for the current parameters on a new goroutine. The
// returned channel receives exactly one Result and is then closed.
func (v *View) FetchAsync(ctx context.Context, f Fetcher) <-chan Result {
	req := v.Begin()
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		page, err := f.ListBooks(ctx, req.Params.Category, req.Params.PageSize, req.Params.PageNum)
		applied := v.Complete(req, page, err)
		done <- Result{Request: req, Applied: applied, Err: err}
	}()
	return done
}
