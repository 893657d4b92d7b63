// Command bookctl seeds and inspects the bookstore catalog.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env.local")
	if err := rootCmd(defaultDeps()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "Seed and inspect the bookstore catalog",
		Long: `Seed and inspect the bookstore catalog.

Examples:
  bookctl seed --file books.yaml
  bookctl books --url http://localhost:8081 --category Fantasy --sort asc
  bookctl categories --url http://localhost:8081
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(seedCmd(d))
	cmd.AddCommand(booksCmd(d))
	cmd.AddCommand(categoriesCmd(d))
	return cmd
}
