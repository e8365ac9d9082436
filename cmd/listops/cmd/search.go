package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/listops/listops/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchSelection selectionFlags
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search a cached price list",
	Long: `Search items by code, description, brand or category.

Matching ignores case and accents. An item matches when it contains the whole
query or every word of it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchSelection.register(searchCmd.Flags())
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum results to show (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	sel := searchSelection.selection()

	entry, err := loadCached(sel.Key())
	if err != nil {
		return err
	}

	results := search.Search(entry.Catalog, query)

	printSection(fmt.Sprintf("SEARCH %q IN %s", query, strings.ToUpper(sel.Key())))

	if len(results) == 0 {
		color.Yellow("  No items match %q", query)
		fmt.Println()
		return nil
	}

	shown := results
	if searchLimit > 0 && len(shown) > searchLimit {
		shown = shown[:searchLimit]
	}

	table := newTable("Cod", "Descripcion", "Marca", "Categoria", "Precios")
	for _, r := range shown {
		var prices []string
		for i, p := range r.Item.Prices() {
			if p != nil {
				prices = append(prices, fmt.Sprintf("%d: %s", i+1, displayPrice(p)))
			}
		}
		table.Append([]string{r.Item.Code, truncate(r.Item.Description, 40), r.Brand, r.Category, strings.Join(prices, "  ")})
	}
	table.Render()
	fmt.Println()

	if len(shown) < len(results) {
		infoColor.Printf("  Showing %d of %d matches\n\n", len(shown), len(results))
	} else {
		successColor.Printf("  ✓ %d matches\n\n", len(results))
	}

	return nil
}
