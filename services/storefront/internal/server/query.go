package server

import (
	"net/url"
	"slices"
	"strconv"

	"bookstore/pkg/catalogview"
	"bookstore/pkg/domain"
)

// catalogQuery is the catalog view state carried in URLs and forms.
type catalogQuery struct {
	Category string
	PageSize int
	PageNum  int
	Sort     catalogview.SortMode
	Added    bool
}

// parseCatalogQuery is lenient: anything unparseable falls back to its default.
func parseCatalogQuery(v url.Values) catalogQuery {
	q := catalogQuery{
		Category: v.Get("category"),
		PageSize: catalogview.DefaultPageSize,
		PageNum:  catalogview.DefaultPageNum,
		Sort:     catalogview.ParseSortMode(v.Get("sort")),
		Added:    v.Get("added") == "1",
	}
	if domain.IsAllCategories(q.Category) {
		q.Category = domain.CategoryAll
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil && slices.Contains(catalogview.PageSizeOptions, n) {
		q.PageSize = n
	}
	if n, err := strconv.Atoi(v.Get("pageNum")); err == nil && n > 0 {
		q.PageNum = n
	}
	return q
}

func queryFromState(st catalogview.State) catalogQuery {
	return catalogQuery{
		Category: st.Category,
		PageSize: st.PageSize,
		PageNum:  st.PageNum,
		Sort:     st.Sort,
	}
}

func (q catalogQuery) view() *catalogview.View {
	return catalogview.NewWithState(q.Category, q.PageSize, q.PageNum, q.Sort)
}

// URL renders the query as a catalog link. Defaults are omitted.
func (q catalogQuery) URL() string {
	v := url.Values{}
	if !domain.IsAllCategories(q.Category) {
		v.Set("category", q.Category)
	}
	if q.PageSize != catalogview.DefaultPageSize {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.PageNum > 1 {
		v.Set("pageNum", strconv.Itoa(q.PageNum))
	}
	if q.Sort != catalogview.SortDefault {
		v.Set("sort", q.Sort.String())
	}
	if q.Added {
		v.Set("added", "1")
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}
