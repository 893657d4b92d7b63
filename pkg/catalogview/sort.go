package catalogview

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"bookstore/pkg/domain"
)

// SortMode is the page-local title ordering.
type SortMode int

const (
	SortDefault SortMode = iota
	SortAscending
	SortDescending
)

// Next cycles default -> ascending -> descending -> default.
func (m SortMode) Next() SortMode {
	switch m {
	case SortDefault:
		return SortAscending
	case SortAscending:
		return SortDescending
	default:
		return SortDefault
	}
}

// String is the query parameter form: default, asc or desc.
func (m SortMode) String() string {
	switch m {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return "default"
	}
}

// ParseSortMode accepts asc/ascending and desc/descending. Anything else is SortDefault.
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAscending
	case "desc", "descending":
		return SortDescending
	default:
		return SortDefault
	}
}

func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// sortBooks returns a copy of books ordered by title under mode.
// Equal titles keep their server order.
func sortBooks(col *collate.Collator, books []domain.Book, mode SortMode) []domain.Book {
	out := slices.Clone(books)
	if out == nil {
		out = []domain.Book{}
	}
	switch mode {
	case SortAscending:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortDescending:
		slices.SortStableFunc(out, func(a, b domain.Book) int {
			return col.CompareString(b.Title, a.Title)
		})
	}
	return out
}
