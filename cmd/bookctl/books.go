package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bookstore/pkg/catalogview"
	"bookstore/pkg/domain"
)

const defaultCatalogURL = "http://localhost:8081"

func booksCmd(d deps) *cobra.Command {
	var (
		baseURL  string
		category string
		pageSize int
		pageNum  int
		sortMode string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Print one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(strings.TrimSpace(sortMode)) {
			case "", "default", "asc", "ascending", "desc", "descending":
			default:
				return fmt.Errorf("unknown sort %q (want asc or desc)", sortMode)
			}
			view := catalogview.NewWithState(category, pageSize, pageNum, catalogview.ParseSortMode(sortMode))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := view.Refresh(ctx, d.catalog(baseURL)); err != nil {
				return fmt.Errorf("fetch books: %w", err)
			}
			st := view.State()
			if err := writeBooks(cmd.OutOrStdout(), st.Books); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d books in %s\n", st.PageNum, view.TotalPages(), st.TotalCount, st.Category)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", defaultCatalogURL, "Catalog service base URL")
	cmd.Flags().StringVar(&category, "category", domain.CategoryAll, "Category filter")
	cmd.Flags().IntVar(&pageSize, "page-size", catalogview.DefaultPageSize, "Books per page")
	cmd.Flags().IntVar(&pageNum, "page", catalogview.DefaultPageNum, "Page number (1-based)")
	cmd.Flags().StringVar(&sortMode, "sort", "", "Sort the page by title: asc or desc")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

func writeBooks(w io.Writer, books []domain.Book) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tPAGES\tPRICE")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", b.BookID, b.Title, b.Author, b.Category, b.PageCount, b.Price.StringFixed(2))
	}
	return tw.Flush()
}

func categoriesCmd(d deps) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the catalog's categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			categories, err := catalogview.LoadCategories(ctx, d.catalog(baseURL))
			if err != nil {
				return fmt.Errorf("load categories: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(categories, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", defaultCatalogURL, "Catalog service base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}
