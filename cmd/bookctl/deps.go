package main

import (
	"context"

	"bookstore/pkg/catalogclient"
	"bookstore/pkg/catalogview"
	"bookstore/pkg/domain"
	"bookstore/pkg/store"
)

type bookSaver interface {
	SaveBooks(ctx context.Context, books []domain.Book) error
}

// deps are the outside resources commands reach. Tests replace them.
type deps struct {
	openStore func(dsn string) (bookSaver, func(), error)
	catalog   func(baseURL string) catalogview.Fetcher
}

func defaultDeps() deps {
	return deps{
		openStore: func(dsn string) (bookSaver, func(), error) {
			s, err := store.NewGormStore(dsn)
			if err != nil {
				return nil, nil, err
			}
			return s, func() { _ = s.Close() }, nil
		},
		catalog: func(baseURL string) catalogview.Fetcher {
			return catalogclient.NewClient(baseURL)
		},
	}
}
