package output

import (
	"github.com/listops/listops/pkg/models"
)

// FilterCategories returns a shallow copy of the catalog holding only the
// named categories. An empty name list returns the catalog unchanged.
func FilterCategories(catalog *models.Catalog, names []string) *models.Catalog {
	if len(names) == 0 {
		return catalog
	}

	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	filtered := &models.Catalog{
		UpdatedAt:  catalog.UpdatedAt,
		Contact:    catalog.Contact,
		Categories: []*models.Category{},
	}
	for _, c := range catalog.Categories {
		if keep[c.Name] {
			filtered.Categories = append(filtered.Categories, c)
		}
	}
	return filtered
}

// ItemRow is one item flattened with its category, brand and price labels
type ItemRow struct {
	Category    string                           `json:"category"`
	Brand       string                           `json:"brand"`
	Code        string                           `json:"code"`
	Description string                           `json:"description"`
	Columns     []string                         `json:"columns"`
	Prices      [models.MaxPriceColumns]*float64 `json:"prices"`
}

// Flatten lists every item in catalog order. Columns falls back to defaults
// for categories that captured no labels.
func Flatten(catalog *models.Catalog, defaults []string) []ItemRow {
	var rows []ItemRow
	catalog.Walk(func(cat *models.Category, b *models.Brand, it *models.Item) {
		rows = append(rows, ItemRow{
			Category:    cat.Name,
			Brand:       b.Name,
			Code:        it.Code,
			Description: it.Description,
			Columns:     cat.DisplayColumns(defaults),
			Prices:      it.Prices(),
		})
	})
	return rows
}
