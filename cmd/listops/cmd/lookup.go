package cmd

import (
	"fmt"

	"github.com/listops/listops/pkg/models"
	"github.com/spf13/cobra"
)

var (
	lookupSelection selectionFlags
	lookupColumn    int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [code]",
	Short: "Look up an item by code",
	Long: `Find an item in a cached list by its code and print its prices.

With --column, print the cart key for that price column, the way the
storefront keys a cart line.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupSelection.register(lookupCmd.Flags())
	lookupCmd.Flags().IntVar(&lookupColumn, "column", 0, "1-based price column to resolve")
}

func runLookup(cmd *cobra.Command, args []string) error {
	code := args[0]
	sel := lookupSelection.selection()

	entry, err := loadCached(sel.Key())
	if err != nil {
		return err
	}

	item, brand, cat := entry.Catalog.FindItem(code)
	if item == nil {
		return fmt.Errorf("item %s not found in list %s", code, sel.Key())
	}

	labels := cat.DisplayColumns(defaultColumns())

	printSection("ITEM " + code)
	fmt.Printf("  Descripcion: %s\n", item.Description)
	fmt.Printf("  Categoria:   %s\n", cat.Name)
	if brand.Name != cat.Name {
		fmt.Printf("  Marca:       %s\n", brand.Name)
	}
	fmt.Println()

	table := newTable("#", "Columna", "Precio", "Cart key")
	for i, p := range item.Prices() {
		if p == nil {
			continue
		}
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		table.Append([]string{fmt.Sprintf("%d", i+1), label, displayPrice(p), models.CartKey(code, i+1)})
	}
	table.Render()
	fmt.Println()

	if lookupColumn != 0 {
		p := item.Price(lookupColumn)
		if p == nil {
			return fmt.Errorf("item %s has no price in column %d", code, lookupColumn)
		}
		successColor.Printf("  ✓ %s → %s\n\n", models.CartKey(code, lookupColumn), displayPrice(p))
	}

	return nil
}
