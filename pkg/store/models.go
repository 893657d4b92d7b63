package store

import (
	"github.com/shopspring/decimal"

	"bookstore/pkg/domain"
)

// BookModel is the GORM mapping of the books table.
type BookModel struct {
	BookID         int64  `gorm:"primaryKey;autoIncrement:false"`
	Title          string `gorm:"not null"`
	Author         string
	Publisher      string
	ISBN           string `gorm:"column:isbn"`
	Classification string
	Category       string          `gorm:"not null;index"`
	PageCount      int             `gorm:"not null;default:0"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

// TableName pins the table name; the default would be book_models.
func (BookModel) TableName() string {
	return "books"
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		BookID:         b.BookID,
		Title:          b.Title,
		Author:         b.Author,
		Publisher:      b.Publisher,
		ISBN:           b.ISBN,
		Classification: b.Classification,
		Category:       b.Category,
		PageCount:      b.PageCount,
		Price:          b.Price,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		BookID:         m.BookID,
		Title:          m.Title,
		Author:         m.Author,
		Publisher:      m.Publisher,
		ISBN:           m.ISBN,
		Classification: m.Classification,
		Category:       m.Category,
		PageCount:      m.PageCount,
		Price:          m.Price,
	}
}
