package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/domain"
)

var (
	productsSearch   string
	productsCategory string
	productsSort     string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Search, filter and sort the catalog from the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		svc, closeCatalog, err := openCatalog(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer closeCatalog()

		products := catalog.Apply(svc.ListProducts(), catalog.Criteria{
			Search:   productsSearch,
			Category: productsCategory,
			Sort:     catalog.ParseSortKey(productsSort),
		})
		return printProducts(cmd.OutOrStdout(), products)
	},
}

func printProducts(out io.Writer, products []domain.Product) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tBRAND\tPRICE\tRATING\tREVIEWS\tSTOCK")
	for _, p := range products {
		stock := "yes"
		if !p.InStock {
			stock = "no"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.1f\t%d\t%s\n",
			p.ID, p.Name, p.Category, p.Brand, p.Price.StringFixed(2), p.Rating, p.Reviews, stock)
	}
	fmt.Fprintf(tw, "\n%d products\n", len(products))
	return tw.Flush()
}
