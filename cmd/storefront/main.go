package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fjod/shopclassy/internal/catalog"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "shopclassy storefront HTTP server and catalog tools",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	productsCmd.Flags().StringVar(&productsSearch, "search", "", "Case-insensitive search over name, description and brand")
	productsCmd.Flags().StringVar(&productsCategory, "category", "all", "Category to keep (all for every category)")
	productsCmd.Flags().StringVar(&productsSort, "sort", string(catalog.SortName), "Sort key: name, price-low, price-high, rating, popularity")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(productsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
