package catalogview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/domain"
)

// catalog serves an in-memory list ordered by id, filtered and windowed like the catalog service.
type catalog struct {
	books []domain.Book
	calls []Params
}

func (c *catalog) ListBooks(_ context.Context, category string, pageSize, pageNum int) (domain.Page, error) {
	c.calls = append(c.calls, Params{Category: category, PageSize: pageSize, PageNum: pageNum})
	var filtered []domain.Book
	for _, b := range c.books {
		if domain.IsAllCategories(category) || b.Category == category {
			filtered = append(filtered, b)
		}
	}
	start := (pageNum - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := min(start+pageSize, len(filtered))
	return domain.Page{Books: append([]domain.Book{}, filtered[start:end]...), TotalCount: len(filtered)}, nil
}

func newCatalog(n int) *catalog {
	titles := []string{"mango", "Apple", "cherry", "Banana", "éclair", "date", "Fig", "grape", "kiwi", "lemon", "Lime", "nectarine"}
	c := &catalog{}
	for i := 0; i < n; i++ {
		category := "Fiction"
		if i%3 == 2 {
			category = "Biography"
		}
		c.books = append(c.books, domain.Book{
			BookID:   int64(i + 1),
			Title:    titles[i%len(titles)],
			Category: category,
			Price:    decimal.NewFromInt(int64(i + 1)),
		})
	}
	return c
}

func ids(books []domain.Book) []int64 {
	out := make([]int64, 0, len(books))
	for _, b := range books {
		out = append(out, b.BookID)
	}
	return out
}

func titles(books []domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	v := New()
	st := v.State()
	assert.Equal(t, Params{Category: "All", PageSize: 5, PageNum: 1}, st.Params)
	assert.Equal(t, StatusIdle, st.Status)
	assert.True(t, v.NeedsFetch())
	assert.Empty(t, v.PageNumbers())
}

func TestPaginationOverTwelveBooks(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(12)
	v := New()

	var sizes []int
	for page := 1; page <= 3; page++ {
		v.SetPage(page)
		require.NoError(t, v.Refresh(ctx, c))
		st := v.State()
		sizes = append(sizes, len(st.Books))
		assert.Equal(t, 12, st.TotalCount)
	}
	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, 3, v.TotalPages())
	assert.Equal(t, []int{1, 2, 3}, v.PageNumbers())
}

func TestNextPrevAreNoOpsAtBounds(t *testing.T) {
	ctx := context.Background()
	v := New()
	v.NextPage()
	assert.Equal(t, 1, v.State().PageNum, "next is disabled before the total is known")

	require.NoError(t, v.Refresh(ctx, newCatalog(12)))
	v.PrevPage()
	assert.Equal(t, 1, v.State().PageNum)
	assert.False(t, v.HasPrev())

	v.NextPage()
	v.NextPage()
	v.NextPage()
	assert.Equal(t, 3, v.State().PageNum)
	assert.False(t, v.HasNext())
	assert.True(t, v.HasPrev())
}

func TestSetPageClamps(t *testing.T) {
	v := New()
	v.SetPage(7)
	assert.Equal(t, 7, v.State().PageNum, "no upper bound before the total is known")
	v.SetPage(-2)
	assert.Equal(t, 1, v.State().PageNum)

	require.NoError(t, v.Refresh(context.Background(), newCatalog(12)))
	v.SetPage(99)
	assert.Equal(t, 3, v.State().PageNum)
}

func TestCategoryAndPageSizeResetPage(t *testing.T) {
	v := NewWithState("", 5, 3, SortDefault)
	assert.Equal(t, "All", v.State().Category)

	v.SetCategory("All")
	assert.Equal(t, 3, v.State().PageNum, "unchanged category keeps the page")
	v.SetCategory("Biography")
	assert.Equal(t, 1, v.State().PageNum)

	v.SetPage(2)
	v.SetPageSize(5)
	assert.Equal(t, 2, v.State().PageNum, "unchanged size keeps the page")
	v.SetPageSize(10)
	assert.Equal(t, Params{Category: "Biography", PageSize: 10, PageNum: 1}, v.State().Params)
	v.SetPageSize(0)
	assert.Equal(t, 10, v.State().PageSize)
}

func TestRefreshOnlyWhenParametersChange(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(12)
	v := New()

	require.NoError(t, v.Refresh(ctx, c))
	require.NoError(t, v.Refresh(ctx, c))
	assert.Len(t, c.calls, 1)

	v.SetCategory("Biography")
	v.ToggleSort()
	require.NoError(t, v.Refresh(ctx, c))
	want := []Params{
		{Category: "All", PageSize: 5, PageNum: 1},
		{Category: "Biography", PageSize: 5, PageNum: 1},
	}
	if diff := cmp.Diff(want, c.calls); diff != "" {
		t.Fatalf("fetches mismatch (-want +got):\n%s", diff)
	}
	for _, b := range v.State().Books {
		assert.Equal(t, "Biography", b.Category)
	}
	assert.Equal(t, 4, v.State().TotalCount)

	require.NoError(t, v.Reload(ctx, c))
	assert.Len(t, c.calls, 3)
}

func TestToggleSortCyclesBackToServerOrder(t *testing.T) {
	v := New()
	require.NoError(t, v.Refresh(context.Background(), newCatalog(12)))
	original := v.State().Books

	assert.Equal(t, SortAscending, v.ToggleSort())
	assert.Equal(t, []string{"Apple", "Banana", "cherry", "date", "éclair"}, titles(v.State().Books))

	assert.Equal(t, SortDescending, v.ToggleSort())
	assert.Equal(t, []string{"éclair", "date", "cherry", "Banana", "Apple"}, titles(v.State().Books))

	assert.Equal(t, SortDefault, v.ToggleSort())
	if diff := cmp.Diff(original, v.State().Books); diff != "" {
		t.Fatalf("three toggles should restore server order (-want +got):\n%s", diff)
	}
}

func TestSortIsPageLocalAndReappliedToNewPages(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(12)
	v := NewWithState("All", 5, 1, SortDescending)
	require.NoError(t, v.Refresh(ctx, c))
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, ids(v.State().Books), "sorting never pulls books from other pages")

	v.NextPage()
	require.NoError(t, v.Refresh(ctx, c))
	assert.Equal(t, []string{"lemon", "kiwi", "grape", "Fig", "date"}, titles(v.State().Books))
	assert.Equal(t, SortDescending, v.State().Sort)
}

func TestFetchErrorKeepsStaleBooksAndRetry(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(12)
	v := New()
	require.NoError(t, v.Refresh(ctx, c))

	boom := errors.New("catalog unavailable")
	failing := FetcherFunc(func(context.Context, string, int, int) (domain.Page, error) {
		return domain.Page{}, boom
	})
	v.NextPage()
	require.ErrorIs(t, v.Refresh(ctx, failing), boom)

	st := v.State()
	assert.Equal(t, StatusError, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.True(t, st.Stale)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(st.Books))
	assert.False(t, v.NeedsFetch(), "no automatic retry for the same parameters")

	require.NoError(t, v.Retry(ctx, c))
	st = v.State()
	assert.Equal(t, StatusLoaded, st.Status)
	assert.False(t, st.Stale)
	assert.Equal(t, []int64{6, 7, 8, 9, 10}, ids(st.Books))
	assert.Equal(t, Params{Category: "All", PageSize: 5, PageNum: 2}, c.calls[len(c.calls)-1])

	assert.ErrorIs(t, v.Retry(ctx, c), ErrNothingToRetry)
}

func TestFirstFetchErrorIsNotStale(t *testing.T) {
	v := New()
	err := v.Refresh(context.Background(), FetcherFunc(func(context.Context, string, int, int) (domain.Page, error) {
		return domain.Page{}, fmt.Errorf("dial: refused")
	}))
	require.Error(t, err)
	st := v.State()
	assert.Equal(t, StatusError, st.Status)
	assert.False(t, st.Stale)
	assert.Empty(t, st.Books)
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	v := New()
	first := v.Begin()
	v.SetPage(2)
	second := v.Begin()
	assert.Equal(t, StatusLoading, v.State().Status)

	newer := domain.Page{Books: []domain.Book{{BookID: 6, Title: "newer"}}, TotalCount: 12}
	older := domain.Page{Books: []domain.Book{{BookID: 1, Title: "older"}}, TotalCount: 12}
	require.True(t, v.Complete(second, newer, nil))
	require.False(t, v.Complete(first, older, nil))
	require.False(t, v.Complete(first, domain.Page{}, errors.New("late failure")))

	st := v.State()
	assert.Equal(t, StatusLoaded, st.Status)
	assert.Equal(t, []int64{6}, ids(st.Books))
}

func TestFetchAsyncOutOfOrder(t *testing.T) {
	c := newCatalog(12)
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	slow := FetcherFunc(func(ctx context.Context, category string, pageSize, pageNum int) (domain.Page, error) {
		<-gates[pageNum]
		return c.ListBooks(ctx, category, pageSize, pageNum)
	})

	v := New()
	firstDone := v.FetchAsync(context.Background(), slow)
	v.SetPage(2)
	secondDone := v.FetchAsync(context.Background(), slow)

	close(gates[2])
	second := <-secondDone
	require.NoError(t, second.Err)
	assert.True(t, second.Applied)

	close(gates[1])
	first := <-firstDone
	require.NoError(t, first.Err)
	assert.False(t, first.Applied, "superseded response must not be applied")

	_, open := <-firstDone
	assert.False(t, open)
	st := v.State()
	assert.Equal(t, 2, st.PageNum)
	assert.Equal(t, []int64{6, 7, 8, 9, 10}, ids(st.Books))
}

func TestParseSortMode(t *testing.T) {
	for in, want := range map[string]SortMode{"asc": SortAscending, "DESC": SortDescending, "": SortDefault, "x": SortDefault} {
		assert.Equal(t, want, ParseSortMode(in), in)
	}
	assert.Equal(t, "desc", SortDescending.String())
}
