package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"bookstore/pkg/domain"
)

type seedFile struct {
	Books []seedBook `yaml:"books"`
}

type seedBook struct {
	BookID         int64  `yaml:"bookID"`
	Title          string `yaml:"title"`
	Author         string `yaml:"author"`
	Publisher      string `yaml:"publisher"`
	ISBN           string `yaml:"isbn"`
	Classification string `yaml:"classification"`
	Category       string `yaml:"category"`
	PageCount      int    `yaml:"pageCount"`
	Price          string `yaml:"price"`
}

// LoadSeedFile reads a YAML document of the form `books: [...]`.
func LoadSeedFile(path string) ([]domain.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed books.
func ParseSeed(data []byte) ([]domain.Book, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[int64]struct{}, len(doc.Books))
	books := make([]domain.Book, 0, len(doc.Books))
	for i, sb := range doc.Books {
		if sb.BookID <= 0 {
			return nil, fmt.Errorf("seed book #%d: bookID must be positive", i+1)
		}
		if _, dup := seen[sb.BookID]; dup {
			return nil, fmt.Errorf("seed book #%d: duplicate bookID %d", i+1, sb.BookID)
		}
		seen[sb.BookID] = struct{}{}
		if strings.TrimSpace(sb.Title) == "" {
			return nil, fmt.Errorf("seed book %d: title is required", sb.BookID)
		}
		if sb.PageCount < 0 {
			return nil, fmt.Errorf("seed book %d: pageCount must be >= 0", sb.BookID)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(sb.Price))
		if err != nil {
			return nil, fmt.Errorf("seed book %d: invalid price %q: %w", sb.BookID, sb.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("seed book %d: price must be >= 0", sb.BookID)
		}
		books = append(books, domain.Book{
			BookID:         sb.BookID,
			Title:          sb.Title,
			Author:         sb.Author,
			Publisher:      sb.Publisher,
			ISBN:           sb.ISBN,
			Classification: sb.Classification,
			Category:       sb.Category,
			PageCount:      sb.PageCount,
			Price:          price,
		})
	}
	return books, nil
}
