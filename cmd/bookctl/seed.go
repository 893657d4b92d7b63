package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bookstore/pkg/store"
)

func seedCmd(d deps) *cobra.Command {
	var (
		dsn     string
		file    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert books from a YAML seed file into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			if dsn == "" {
				return errors.New("--dsn or DATABASE_URL is required")
			}
			books, err := store.LoadSeedFile(file)
			if err != nil {
				return err
			}
			saver, closeStore, err := d.openStore(dsn)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := saver.SaveBooks(ctx, books); err != nil {
				return fmt.Errorf("save books: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books from %s\n", len(books), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default $DATABASE_URL)")
	cmd.Flags().StringVar(&file, "file", "books.yaml", "YAML seed file")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for the upsert")
	return cmd
}
