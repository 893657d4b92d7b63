package catalogview

import (
	"context"
	"fmt"
	"strings"

	"bookstore/pkg/domain"
)

// CategoryScanPageSize is the page size used to enumerate categories.
const CategoryScanPageSize = 1000

// LoadCategories scans the whole catalog and returns "All" followed by every
// distinct category in first-seen order.
func LoadCategories(ctx context.Context, f Fetcher) ([]string, error) {
	out := []string{domain.CategoryAll}
	seen := map[string]struct{}{domain.CategoryAll: {}}
	scanned := 0
	for pageNum := 1; ; pageNum++ {
		page, err := f.ListBooks(ctx, domain.CategoryAll, CategoryScanPageSize, pageNum)
		if err != nil {
			return nil, fmt.Errorf("load categories page %d: %w", pageNum, err)
		}
		for _, b := range page.Books {
			category := b.Category
			if strings.TrimSpace(category) == "" {
				continue
			}
			if _, ok := seen[category]; ok {
				continue
			}
			seen[category] = struct{}{}
			out = append(out, category)
		}
		scanned += len(page.Books)
		if len(page.Books) == 0 || scanned >= page.TotalCount {
			return out, nil
		}
	}
}
