package parser

import "github.com/listops/listops/pkg/models"

// Prune drops brands without items, then categories left without brands.
// The catalog is modified in place and returned.
func Prune(c *models.Catalog) *models.Catalog {
	categories := make([]*models.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		brands := make([]*models.Brand, 0, len(cat.Brands))
		for _, b := range cat.Brands {
			if len(b.Items) > 0 {
				brands = append(brands, b)
			}
		}
		if len(brands) == 0 {
			continue
		}
		cat.Brands = brands
		categories = append(categories, cat)
	}
	c.Categories = categories
	return c
}
