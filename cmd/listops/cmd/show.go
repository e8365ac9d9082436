package cmd

import (
	"fmt"
	"strings"

	"github.com/listops/listops/pkg/models"
	"github.com/spf13/cobra"
)

var (
	showSelection selectionFlags
	showCategory  string
	showSummary   bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a cached price list",
	Long:  `Print the cached catalog of a list, one table per category.`,
	RunE:  runShow,
}

func init() {
	showSelection.register(showCmd.Flags())
	showCmd.Flags().StringVar(&showCategory, "category", "", "Only show this category (exact name)")
	showCmd.Flags().BoolVar(&showSummary, "summary", false, "Only list categories with their counts")
}

func runShow(cmd *cobra.Command, args []string) error {
	sel := showSelection.selection()
	entry, err := loadCached(sel.Key())
	if err != nil {
		return err
	}
	catalog := entry.Catalog

	printSection("LISTA " + strings.ToUpper(sel.Key()))
	if catalog.UpdatedAt != "" {
		infoColor.Printf("  Actualizado: %s\n", catalog.UpdatedAt)
	}
	if catalog.Contact != "" {
		infoColor.Printf("  Contacto:    %s\n", catalog.Contact)
	}
	fmt.Printf("  Fetched %s from %s\n", entry.FetchedAt.Format("2006-01-02 15:04"), entry.Origin)

	if showSummary {
		fmt.Println()
		table := newTable("Category", "Brands", "Items")
		for _, cat := range catalog.Categories {
			table.Append([]string{cat.Name, fmt.Sprintf("%d", len(cat.Brands)), fmt.Sprintf("%d", cat.ItemCount())})
		}
		table.Render()
		fmt.Println()
		return nil
	}

	shown := 0
	for _, cat := range catalog.Categories {
		if showCategory != "" && cat.Name != showCategory {
			continue
		}
		printCategory(cat)
		shown++
	}
	if shown == 0 && showCategory != "" {
		return fmt.Errorf("category %q not found in list %s", showCategory, sel.Key())
	}
	fmt.Println()

	return nil
}

func printCategory(cat *models.Category) {
	labels := cat.DisplayColumns(defaultColumns())

	headerColor.Printf("\n  %s\n", cat.Name)

	headers := append([]string{"Cod", "Descripcion"}, labels...)
	table := newTable(headers...)
	for _, b := range cat.Brands {
		if b.Name != cat.Name {
			row := make([]string, len(headers))
			row[1] = "» " + b.Name
			table.Append(row)
		}
		for _, it := range b.Items {
			row := []string{it.Code, truncate(it.Description, 48)}
			for i := range labels {
				row = append(row, displayPrice(it.Price(i+1)))
			}
			table.Append(row)
		}
	}
	table.Render()
}
